package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Error() string {
	return "config validation failed:\n- " + strings.Join(v.Errors, "\n- ")
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}
	trimCompanies := func(name string, xs []CompanyRef) []CompanyRef {
		seen := map[string]bool{}
		var ys []CompanyRef
		for i, c := range xs {
			c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
			c.Name = strings.TrimSpace(c.Name)
			if c.Slug == "" {
				res.addErr("%s[%d].slug is required", name, i)
				continue
			}
			if seen[c.Slug] {
				res.addWarn("%s lists %q more than once", name, c.Slug)
				continue
			}
			seen[c.Slug] = true
			ys = append(ys, c)
		}
		return ys
	}

	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)
	out.CORS.AllowedOrigins = trimList(out.CORS.AllowedOrigins)
	out.Database.Driver = strings.ToLower(strings.TrimSpace(out.Database.Driver))
	out.Sources.Greenhouse.Companies = trimCompanies("sources.greenhouse.companies", out.Sources.Greenhouse.Companies)
	out.Sources.Lever.Companies = trimCompanies("sources.lever.companies", out.Sources.Lever.Companies)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(out.Database.Path) == "" {
			res.addErr("database.path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(out.Database.URL) == "" {
			res.addErr("database.url (or DATABASE_URL) is required for the postgres driver")
		}
	default:
		res.addErr("database.driver must be sqlite or postgres, got %q", out.Database.Driver)
	}

	if out.Redis.Enabled && strings.TrimSpace(out.Redis.URL) == "" {
		res.addErr("redis.url (or REDIS_URL) is required when redis.enabled=true")
	}

	// dedup thresholds are similarity ratios
	inUnit := func(name string, v float64) {
		if v < 0 || v > 1 {
			res.addErr("%s must be within 0..1, got %v", name, v)
		}
	}
	inUnit("dedup.title_threshold", out.Dedup.TitleThreshold)
	inUnit("dedup.description_threshold", out.Dedup.DescriptionThreshold)
	if out.Dedup.DescriptionSample <= 0 {
		res.addErr("dedup.description_sample must be > 0")
	}
	if out.Dedup.TitleThreshold < 0.5 {
		res.addWarn("dedup.title_threshold is low (%v); unrelated roles may merge.", out.Dedup.TitleThreshold)
	}

	// search
	if out.Search.TitleWeight < 0 || out.Search.DescriptionWeight < 0 {
		res.addErr("search weights must be >= 0")
	}
	if out.Search.TitleWeight == 0 && out.Search.DescriptionWeight == 0 {
		res.addErr("search.title_weight and search.description_weight cannot both be 0")
	}
	if out.Search.RecencyWindowDays < 0 {
		res.addErr("search.recency_window_days must be >= 0")
	}
	if out.Search.MaxPageSize <= 0 {
		res.addErr("search.max_page_size must be > 0")
	}
	if out.Search.DefaultPageSize <= 0 || out.Search.DefaultPageSize > out.Search.MaxPageSize {
		res.addErr("search.default_page_size must be 1..search.max_page_size")
	}

	// polling sanity
	if out.Polling.Enabled {
		if _, err := cron.ParseStandard(out.Polling.Schedule); err != nil {
			res.addErr("polling.schedule %q is not a valid cron spec: %v", out.Polling.Schedule, err)
		}
		if !out.Email.Enabled && !out.Sources.Greenhouse.Enabled && !out.Sources.Lever.Enabled {
			res.addWarn("polling is enabled but no source is: enable email, greenhouse or lever")
		}
	}
	if out.Polling.FetchTimeoutSeconds <= 0 {
		res.addErr("polling.fetch_timeout_seconds must be > 0")
	}
	if out.Sources.RequestsPerSecond <= 0 {
		res.addErr("sources.requests_per_second must be > 0")
	} else if out.Sources.RequestsPerSecond > 10 {
		res.addWarn("sources.requests_per_second is high (%v) and may cause rate limits.", out.Sources.RequestsPerSecond)
	}

	if out.Sources.Greenhouse.Enabled && len(out.Sources.Greenhouse.Companies) == 0 {
		res.addWarn("sources.greenhouse is enabled with no companies")
	}
	if out.Sources.Lever.Enabled && len(out.Sources.Lever.Companies) == 0 {
		res.addWarn("sources.lever is enabled with no companies")
	}

	// email required fields if enabled (password not required here; it’s in keychain)
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; email scraping may find nothing.")
		}
	}

	return out, res
}
