package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-aggregator/internal/errors"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{in: "linkedin", want: SourceLinkedIn},
		{in: " Greenhouse ", want: SourceGreenhouse},
		{in: "LEVER", want: SourceLever},
		{in: "manual", want: SourceManual},
		{in: "indeed", want: SourceIndeed},
		{in: "monster", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSource))
				assert.True(t, errors.IsInvalidRequest(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseApplicationStatus(t *testing.T) {
	for _, s := range []string{"Not Applied", "Applied", "Interview", "Rejected", "Offer"} {
		got, err := ParseApplicationStatus(s)
		require.NoError(t, err)
		assert.Equal(t, ApplicationStatus(s), got)
	}

	_, err := ParseApplicationStatus("applied")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	assert.True(t, errors.IsInvalidRequest(err))
}
