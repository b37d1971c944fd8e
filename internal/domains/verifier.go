// Package domains verifies the DNS records of customer mail domains.
package domains

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// ownershipPrefix starts the TXT record that proves domain ownership.
const ownershipPrefix = "nubo-mail-verification="

// Resolver is the DNS surface the verifier probes.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Store is the slice of the data store the verifier persists results in.
type Store interface {
	GetDomainByName(ctx context.Context, name string) (*model.Domain, error)
	ListDomains(ctx context.Context) ([]model.Domain, error)
	UpdateDomainVerification(ctx context.Context, id, status string, result []model.DomainCheck, checkedAt time.Time) error
}

// Verifier probes a domain's zone for the records mail service needs.
type Verifier struct {
	cfg      config.DomainsConfig
	store    Store
	resolver Resolver
	logger   *slog.Logger
}

// New returns a verifier using the system resolver.
func New(cfg config.DomainsConfig, store Store, logger *slog.Logger) *Verifier {
	return NewWithResolver(cfg, store, net.DefaultResolver, logger)
}

// NewWithResolver returns a verifier probing DNS through the given
// resolver. Tests inject a stub here.
func NewWithResolver(cfg config.DomainsConfig, store Store, resolver Resolver, logger *slog.Logger) *Verifier {
	return &Verifier{cfg: cfg, store: store, resolver: resolver, logger: logger}
}

// Verify runs every DNS check against the domain, persists the outcome,
// and returns the updated per-check results. The domain is verified once
// ownership, MX, and SPF all pass; DKIM and DMARC are reported but do not
// block verification. A failed lookup fails its own check only.
func (v *Verifier) Verify(ctx context.Context, d *model.Domain) ([]model.DomainCheck, error) {
	checks := []model.DomainCheck{
		v.checkOwnership(ctx, d),
		v.checkMX(ctx, d),
		v.checkSPF(ctx, d),
		v.checkDKIM(ctx, d),
		v.checkDMARC(ctx, d),
	}

	status := model.DomainFailed
	if passed(checks, model.CheckOwnership) && passed(checks, model.CheckMX) && passed(checks, model.CheckSPF) {
		status = model.DomainVerified
	}

	checkedAt := time.Now().UTC()
	if err := v.store.UpdateDomainVerification(ctx, d.ID, status, checks, checkedAt); err != nil {
		return checks, fmt.Errorf("recording verification of %s: %w", d.Name, err)
	}

	v.logger.Info("domain verified",
		slog.String("domain", d.Name),
		slog.String("status", status))
	return checks, nil
}

// checkOwnership looks for the account's verification token in the
// domain's TXT records.
func (v *Verifier) checkOwnership(ctx context.Context, d *model.Domain) model.DomainCheck {
	check := model.DomainCheck{
		Check:    model.CheckOwnership,
		Expected: ownershipPrefix + d.VerificationToken,
	}

	records, err := v.resolver.LookupTXT(ctx, d.Name)
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	for _, record := range records {
		if strings.TrimSpace(record) == check.Expected {
			check.OK = true
			check.Found = record
			return check
		}
	}
	check.Found = firstMatching(records, ownershipPrefix)
	return check
}

// checkMX verifies the domain routes mail to the service's exchanger.
func (v *Verifier) checkMX(ctx context.Context, d *model.Domain) model.DomainCheck {
	check := model.DomainCheck{
		Check:    model.CheckMX,
		Expected: v.cfg.MXHost,
	}

	records, err := v.resolver.LookupMX(ctx, d.Name)
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	var hosts []string
	for _, mx := range records {
		host := strings.TrimSuffix(mx.Host, ".")
		hosts = append(hosts, host)
		if strings.EqualFold(host, v.cfg.MXHost) {
			check.OK = true
		}
	}
	check.Found = strings.Join(hosts, ", ")
	return check
}

// checkSPF looks for an SPF policy that includes the service's senders.
func (v *Verifier) checkSPF(ctx context.Context, d *model.Domain) model.DomainCheck {
	check := model.DomainCheck{
		Check:    model.CheckSPF,
		Expected: v.cfg.SPFInclude,
	}

	records, err := v.resolver.LookupTXT(ctx, d.Name)
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	for _, record := range records {
		if !strings.HasPrefix(record, "v=spf1") {
			continue
		}
		check.Found = record
		if strings.Contains(record, v.cfg.SPFInclude) {
			check.OK = true
		}
		return check
	}
	return check
}

// checkDKIM looks for a DKIM key under the service's selector.
func (v *Verifier) checkDKIM(ctx context.Context, d *model.Domain) model.DomainCheck {
	name := fmt.Sprintf("%s._domainkey.%s", v.cfg.DKIMSelector, d.Name)
	check := model.DomainCheck{
		Check:    model.CheckDKIM,
		Expected: "v=DKIM1 at " + name,
	}

	records, err := v.resolver.LookupTXT(ctx, name)
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	for _, record := range records {
		if strings.Contains(record, "v=DKIM1") {
			check.OK = true
			check.Found = record
			return check
		}
	}
	check.Found = strings.Join(records, ", ")
	return check
}

// checkDMARC looks for a DMARC policy on the domain.
func (v *Verifier) checkDMARC(ctx context.Context, d *model.Domain) model.DomainCheck {
	name := "_dmarc." + d.Name
	check := model.DomainCheck{
		Check:    model.CheckDMARC,
		Expected: "v=DMARC1 at " + name,
	}

	records, err := v.resolver.LookupTXT(ctx, name)
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	for _, record := range records {
		if strings.HasPrefix(strings.TrimSpace(record), "v=DMARC1") {
			check.OK = true
			check.Found = record
			return check
		}
	}
	check.Found = strings.Join(records, ", ")
	return check
}

func passed(checks []model.DomainCheck, name string) bool {
	for _, c := range checks {
		if c.Check == name {
			return c.OK
		}
	}
	return false
}

func firstMatching(records []string, prefix string) string {
	for _, r := range records {
		if strings.HasPrefix(strings.TrimSpace(r), prefix) {
			return r
		}
	}
	return ""
}
