package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
	"unicode/utf8"

	"github.com/sifan077/LinkPulse/internal/app/model"
	"github.com/sifan077/LinkPulse/internal/app/repository"
	"github.com/sifan077/LinkPulse/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 5
	defaultGeoTimeout = 1500 * time.Millisecond
)

// LinkService defines behaviour-level operations on short links.
type LinkService interface {
	Shorten(ctx context.Context, ownerID string, input ShortenInput) (*model.ShortLink, error)
	GetLink(ctx context.Context, ownerID, code string) (*model.ShortLink, error)
	ListLinks(ctx context.Context, ownerID string) ([]model.ShortLink, error)
	DeleteLink(ctx context.Context, ownerID, id string) error
	// Resolve returns the redirect target for code and records the click.
	Resolve(ctx context.Context, code string, click ClickContext) (string, error)
}

// GeoLocator resolves a client IP to a coarse location. A nil result means unknown.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) (*model.GeoInfo, error)
}

// ClickNotifier receives recorded clicks after they are committed.
type ClickNotifier interface {
	Publish(msg model.ClickMessage) error
}

// ShortenInput captures data required to create a link.
type ShortenInput struct {
	LongURL string
	Name    string
}

// ClickContext is what the redirect endpoint knows about the visitor.
type ClickContext struct {
	IP        string
	UserAgent string
	Referrer  string
}

// LinkServiceOptions wires optional collaborators. Zero values disable them.
type LinkServiceOptions struct {
	Filter     *CodeFilter
	Geo        GeoLocator
	GeoTimeout time.Duration
	Notifier   ClickNotifier
	MaxRetries int
	Logger     *zap.Logger
}

type linkService struct {
	repo       repository.LinkRepository
	generator  CodeGenerator
	filter     *CodeFilter
	geo        GeoLocator
	geoTimeout time.Duration
	notifier   ClickNotifier
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(repo repository.LinkRepository, generator CodeGenerator, opts LinkServiceOptions) LinkService {
	s := &linkService{
		repo:       repo,
		generator:  generator,
		filter:     opts.Filter,
		geo:        opts.Geo,
		geoTimeout: opts.GeoTimeout,
		notifier:   opts.Notifier,
		maxRetries: opts.MaxRetries,
		logger:     opts.Logger,
		now:        time.Now,
	}
	if s.generator == nil {
		s.generator = NewCodeGenerator(model.ShortCodeLength)
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.geoTimeout <= 0 {
		s.geoTimeout = defaultGeoTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *linkService) Shorten(ctx context.Context, ownerID string, input ShortenInput) (*model.ShortLink, error) {
	longURL, err := ValidateLongURL(input.LongURL)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate short code: %w", err)
		}
		if s.filter != nil && s.filter.MayContain(code) {
			prometheus.ShortCodeCollisions.WithLabelValues("filter").Inc()
			continue
		}

		link := &model.ShortLink{
			UserID:    ownerID,
			Name:      input.Name,
			LongURL:   longURL,
			ShortCode: code,
		}
		err = s.repo.Create(ctx, link)
		if err == nil {
			if s.filter != nil {
				s.filter.Add(code)
			}
			prometheus.LinksCreated.Inc()
			return link, nil
		}
		if !errors.Is(err, repository.ErrShortCodeTaken) {
			return nil, fmt.Errorf("create link: %w", err)
		}

		prometheus.ShortCodeCollisions.WithLabelValues("constraint").Inc()
		if s.filter != nil {
			s.filter.Add(code)
		}
		s.logger.Debug("short code collision, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt+1))
	}

	return nil, ErrAllocationExhausted
}

func (s *linkService) GetLink(ctx context.Context, ownerID, code string) (*model.ShortLink, error) {
	link, err := s.repo.GetByCodeForOwner(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) DeleteLink(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteForOwner(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

func (s *linkService) Resolve(ctx context.Context, code string, click ClickContext) (string, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			prometheus.Redirects.WithLabelValues("not_found").Inc()
		}
		return "", fmt.Errorf("resolve link: %w", err)
	}

	event := s.buildEvent(ctx, click)
	if err := s.repo.RecordClick(ctx, link.ID, event); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			prometheus.Redirects.WithLabelValues("not_found").Inc()
		}
		return "", fmt.Errorf("record click: %w", err)
	}
	prometheus.Redirects.WithLabelValues("found").Inc()

	if s.notifier != nil {
		msg := clickMessage(link, event)
		go func() {
			if err := s.notifier.Publish(msg); err != nil {
				s.logger.Warn("failed to publish click event",
					zap.String("code", msg.ShortCode),
					zap.Error(err))
			}
		}()
	}

	return link.LongURL, nil
}

func (s *linkService) buildEvent(ctx context.Context, click ClickContext) *model.ClickEvent {
	event := &model.ClickEvent{
		ClickedAt: s.now().UTC(),
		UserAgent: optional(click.UserAgent),
		Referrer:  optional(click.Referrer),
	}

	ip := click.IP
	if net.ParseIP(ip) == nil {
		ip = ""
	}
	event.IPAddress = bounded(ip, model.ClickIPSize)

	if info := s.locate(ctx, ip); info != nil {
		event.Country = bounded(info.Country, model.ClickLocationSize)
		event.Region = bounded(info.Region, model.ClickLocationSize)
		event.City = bounded(info.City, model.ClickLocationSize)
	}

	if click.UserAgent != "" {
		ua := parseUserAgent(click.UserAgent)
		event.Browser = bounded(ua.Browser, model.ClickAgentPartSize)
		event.OS = bounded(ua.OS, model.ClickAgentPartSize)
		event.DeviceType = bounded(ua.DeviceType, model.ClickDeviceSize)
	}

	return event
}

// locate never fails the redirect: upstream errors and timeouts yield nil.
func (s *linkService) locate(ctx context.Context, ip string) *model.GeoInfo {
	if s.geo == nil || ip == "" {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()

	info, err := s.geo.Locate(lookupCtx, ip)
	if err != nil {
		prometheus.GeoLookups.WithLabelValues("error").Inc()
		s.logger.Warn("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		return nil
	}
	if info == nil {
		prometheus.GeoLookups.WithLabelValues("unknown").Inc()
		return nil
	}
	prometheus.GeoLookups.WithLabelValues("ok").Inc()
	return info
}

func clickMessage(link *model.ShortLink, event *model.ClickEvent) model.ClickMessage {
	return model.ClickMessage{
		EventID:    event.ID,
		LinkID:     link.ID,
		ShortCode:  link.ShortCode,
		ClickedAt:  event.ClickedAt,
		IPAddress:  deref(event.IPAddress),
		Country:    deref(event.Country),
		City:       deref(event.City),
		Referrer:   deref(event.Referrer),
		DeviceType: deref(event.DeviceType),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// bounded is optional cut to at most limit characters, matching varchar(limit).
func bounded(s string, limit int) *string {
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit])
	}
	return optional(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
