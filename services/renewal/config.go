package renewal

import (
	"os"
	"regexp"
	"strings"
	"renewbot/lib/notify"
	"renewbot/services/renewal/cache"
)

type WebDavConfig struct {
	Url  string `json:"url"`
	User string `json:"user"`
	Pass string `json:"pass"`
}

type WxPusherConfig struct {
	AppToken string `json:"app_token"`
	Uids     string `json:"uids"`
}

type EmailConfig struct {
	Smtp notify.SmtpConfig `json:"smtp"`
	To   []string          `json:"to"`
}

type PacingConfig struct {
	Disabled          bool `json:"disabled"`
	AccountDelayMinMs int  `json:"account_delay_min_ms"`
	AccountDelayMaxMs int  `json:"account_delay_max_ms"`
	StepDelayMinMs    int  `json:"step_delay_min_ms"`
	StepDelayMaxMs    int  `json:"step_delay_max_ms"`
}

func (c PacingConfig) accountRange() (int, int) {
	if c.AccountDelayMinMs > 0 && c.AccountDelayMaxMs >= c.AccountDelayMinMs {
		return c.AccountDelayMinMs, c.AccountDelayMaxMs
	}
	return 5000, 10000
}

func (c PacingConfig) stepRange() (int, int) {
	if c.StepDelayMinMs > 0 && c.StepDelayMaxMs >= c.StepDelayMinMs {
		return c.StepDelayMinMs, c.StepDelayMaxMs
	}
	return 1000, 5000
}

type Config struct {
	BaseUrl string `json:"base_url"`
	// multi-account credential blob, delimited by ampersand or newline
	Credentials string         `json:"credentials"`
	CachePath   string         `json:"cache_path"`
	HistoryPath string         `json:"history_path"`
	WxPusher    WxPusherConfig `json:"wxpusher"`
	Email       EmailConfig    `json:"email"`
	WebDav      WebDavConfig   `json:"webdav"`
	Pacing      PacingConfig   `json:"pacing"`
}

func (c Config) WithDefaults() Config {
	if c.BaseUrl == "" {
		c.BaseUrl = "https://dash.hidencloud.com"
	}
	if c.CachePath == "" {
		c.CachePath = cache.FileName
	}
	return c
}

// WithEnvOverrides applies the upstream environment-variable interface
// on top of the file config, so the bot also runs with no config file
// at all.
func (c Config) WithEnvOverrides() Config {
	if v := os.Getenv("HIDEN_COOKIE"); v != "" {
		c.Credentials = v
	}
	if v := os.Getenv("WP_APP_TOKEN_ONE"); v != "" {
		c.WxPusher.AppToken = v
	}
	if v := os.Getenv("WP_UIDs"); v != "" {
		c.WxPusher.Uids = v
	}
	if v := os.Getenv("WEBDAV_URL"); v != "" {
		c.WebDav.Url = v
	}
	if v := os.Getenv("WEBDAV_USER"); v != "" {
		c.WebDav.User = v
	}
	if v := os.Getenv("WEBDAV_PASS"); v != "" {
		c.WebDav.Pass = v
	}
	return c
}

var credentialSeparator = regexp.MustCompile(`[&\n]`)

// SplitCredentials splits the multi-account credential blob, dropping
// blanks. Account index is position in the returned slice.
func SplitCredentials(blob string) []string {
	creds := []string{}
	for _, cred := range credentialSeparator.Split(blob, -1) {
		cred = strings.TrimSpace(cred)
		if cred == "" {
			continue
		}
		creds = append(creds, cred)
	}
	return creds
}
