package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/models"
)

// Platform names an external profile slot on the account.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTiktok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
	PlatformWhatsapp  Platform = "whatsapp"
)

// Platforms lists every supported slot.
var Platforms = []Platform{PlatformFacebook, PlatformInstagram, PlatformTiktok, PlatformTwitter, PlatformWhatsapp}

// Prober checks that a URL answers. It returns the raw status code.
type Prober interface {
	Probe(ctx context.Context, target string) (int, error)
}

// HTTPProber issues one GET with a browser user agent. Redirects are not
// followed so a 302 is observable, and the body is never decoded.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

func NewHTTPProber(userAgent string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{DisableCompression: true, Proxy: http.ProxyFromEnvironment},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "identity")
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 32<<10))
	return resp.StatusCode, nil
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

type platformRule struct {
	accepted  []int
	normalize func(raw string) (value, target string, err error)
	slot      func(s *models.SocialLinks) *string
}

func handleRule(urlFor func(h string) string, slot func(s *models.SocialLinks) *string) platformRule {
	return platformRule{
		accepted: []int{http.StatusOK},
		normalize: func(raw string) (string, string, error) {
			h := strings.TrimLeft(strings.TrimSpace(raw), "@")
			if !handlePattern.MatchString(h) {
				return "", "", fmt.Errorf("%w: handle %q", ErrInvalidInput, raw)
			}
			return h, urlFor(h), nil
		},
		slot: slot,
	}
}

var platformRules = map[Platform]platformRule{
	PlatformFacebook: {
		accepted: []int{http.StatusOK},
		normalize: func(raw string) (string, string, error) {
			v := strings.TrimSpace(raw)
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return "", "", fmt.Errorf("%w: profile url %q", ErrInvalidInput, raw)
			}
			host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
			if host != "facebook.com" && host != "m.facebook.com" && host != "fb.com" {
				return "", "", fmt.Errorf("%w: not a facebook url", ErrInvalidInput)
			}
			return v, v, nil
		},
		slot: func(s *models.SocialLinks) *string { return &s.FacebookLink },
	},
	PlatformInstagram: handleRule(
		func(h string) string { return "https://www.instagram.com/" + h + "/" },
		func(s *models.SocialLinks) *string { return &s.InstagramLink },
	),
	PlatformTiktok: handleRule(
		func(h string) string { return "https://www.tiktok.com/@" + h },
		func(s *models.SocialLinks) *string { return &s.TiktokLink },
	),
	PlatformTwitter: handleRule(
		func(h string) string { return "https://x.com/" + h },
		func(s *models.SocialLinks) *string { return &s.TwitterLink },
	),
	PlatformWhatsapp: {
		// wa.me answers some valid numbers with a redirect
		accepted: []int{http.StatusOK, http.StatusFound},
		normalize: func(raw string) (string, string, error) {
			digits := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, strings.TrimSpace(raw))
			if len(digits) < 7 || len(digits) > 15 {
				return "", "", fmt.Errorf("%w: phone number %q", ErrInvalidInput, raw)
			}
			return digits, "https://wa.me/" + digits, nil
		},
		slot: func(s *models.SocialLinks) *string { return &s.WhatsappLink },
	},
}

// IsPlatform reports whether name is a supported platform.
func IsPlatform(name string) bool {
	_, ok := platformRules[Platform(name)]
	return ok
}

type LinkResult struct {
	Platform         Platform `json:"platform"`
	Value            string   `json:"value"`
	AlreadyLinked    bool     `json:"already_linked"`
	Reward           int64    `json:"reward"`
	TaskBalance      int64    `json:"task_balance"`
	SpendableBalance int64    `json:"spendable_balance"`
}

// SocialEngine records one-time profile links gated by a reachability probe.
type SocialEngine struct {
	store  AccountStore
	clock  DayResolver
	ledger *Ledger
	prober Prober
	cfg    config.RewardConfig
	log    *zap.Logger
}

func NewSocialEngine(store AccountStore, clock DayResolver, ledger *Ledger, prober Prober, cfg config.RewardConfig, logger *zap.Logger) *SocialEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialEngine{store: store, clock: clock, ledger: ledger, prober: prober, cfg: cfg, log: logger}
}

func (e *SocialEngine) already(p Platform, value string, acc *models.Account) *LinkResult {
	return &LinkResult{
		Platform:         p,
		Value:            value,
		AlreadyLinked:    true,
		TaskBalance:      acc.TaskBalance,
		SpendableBalance: acc.SpendableBalance,
	}
}

// Link stores raw for platform once and pays the link reward. Repeat calls
// return AlreadyLinked with the first stored value.
func (e *SocialEngine) Link(ctx context.Context, accountID uint, platform Platform, raw string) (*LinkResult, error) {
	rule, ok := platformRules[platform]
	if !ok {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, platform)
	}

	// a filled slot answers before the input is looked at
	acc, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if stored := *rule.slot(&acc.Social); stored != "" {
		return e.already(platform, stored, acc), nil
	}

	value, target, err := rule.normalize(raw)
	if err != nil {
		return nil, err
	}

	status, err := e.prober.Probe(ctx, target)
	if err != nil {
		e.log.Warn("link probe failed", zap.String("platform", string(platform)), zap.String("url", target), zap.Error(err))
		return nil, &InvalidLinkError{Platform: string(platform), URL: target, Err: err}
	}
	if !containsInt(rule.accepted, status) {
		return nil, &InvalidLinkError{Platform: string(platform), URL: target, StatusCode: status}
	}

	today := e.clock.Today(ctx)
	linked := false
	acc, err = mutateAccount(ctx, e.store, accountID, func(acc *models.Account) ([]*models.Transaction, error) {
		slot := rule.slot(&acc.Social)
		if *slot != "" {
			linked = false
			return nil, errNoChange
		}
		*slot = value
		linked = true
		txn, err := e.ledger.Credit(acc, Entry{
			Kind:        models.KindTask,
			Bucket:      models.BucketTask,
			Amount:      e.cfg.SocialReward,
			Source:      string(platform),
			Description: fmt.Sprintf("Linked %s profile", platform),
			DateKey:     today.DateKey,
		})
		if err != nil {
			return nil, err
		}
		return []*models.Transaction{txn}, nil
	})
	if err != nil {
		return nil, err
	}
	if !linked {
		return e.already(platform, *rule.slot(&acc.Social), acc), nil
	}

	e.log.Info("social link credited", zap.Uint("account_id", accountID), zap.String("platform", string(platform)))
	return &LinkResult{
		Platform:         platform,
		Value:            value,
		Reward:           e.cfg.SocialReward,
		TaskBalance:      acc.TaskBalance,
		SpendableBalance: acc.SpendableBalance,
	}, nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
