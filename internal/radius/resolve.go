package radius

import (
	"net"
	"time"

	"github.com/miekg/dns"
)

// resolveHost turns a pool host identifier (§3 "host record") into a
// dialable IP literal. Identifiers that are already an IP address pass
// through unchanged; DNS names are resolved with an explicit A-record
// query against the system's configured resolver rather than the
// default net.Resolver, mirroring the direct miekg/dns usage in the
// DNS-proxy upstream health prober. Resolution failures fall back to the
// original identifier so a transport-level dial error (not a resolver
// error) is what ultimately surfaces.
func resolveHost(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}

	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return host
	}

	client := &dns.Client{Timeout: 2 * time.Second}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resolver := net.JoinHostPort(cfg.Servers[0], cfg.Port)
	resp, _, err := client.Exchange(msg, resolver)
	if err != nil || resp == nil {
		return host
	}

	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String()
		}
	}
	return host
}
