// Package discovery advertises the HTTP control surface over mDNS.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"sync"

	"github.com/enbility/zeroconf/v3"
	"github.com/golang/glog"
)

// Defaults for the advertised service.
const (
	DefaultService = "_http._tcp"
	DefaultDomain  = "local."
)

// ErrRunning is returned by Start when the service is already advertised.
var ErrRunning = errors.New("discovery: already advertising")

// Config configures an Advertiser.
type Config struct {
	Instance  string // empty uses the hostname
	Service   string
	Domain    string
	Interface string // empty advertises on every interface
}

type server interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (server, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (server, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// Advertiser registers one service instance with zeroconf.
type Advertiser struct {
	cfg      Config
	register registerFunc

	mu     sync.Mutex
	server server
}

// NewAdvertiser creates an advertiser. Nothing is sent until Start.
func NewAdvertiser(cfg Config) *Advertiser {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.Instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "taskcore"
		}
		cfg.Instance = host
	}
	return &Advertiser{cfg: cfg, register: zeroconfRegister}
}

// Instance returns the advertised instance name.
func (a *Advertiser) Instance() string { return a.cfg.Instance }

// Start advertises port with the given TXT records.
func (a *Advertiser) Start(port int, txt map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return ErrRunning
	}
	ifaces, err := a.interfaces()
	if err != nil {
		return err
	}
	srv, err := a.register(a.cfg.Instance, a.cfg.Service, a.cfg.Domain, port, TXTStrings(txt), ifaces)
	if err != nil {
		return fmt.Errorf("discovery: register %s: %w", a.cfg.Service, err)
	}
	a.server = srv
	glog.Infof("discovery: advertising %q as %s%s port %d", a.cfg.Instance, a.cfg.Service, a.cfg.Domain, port)
	return nil
}

// Stop withdraws the advertisement. It is safe to call when not started.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		glog.Infof("discovery: stopped advertising %q", a.cfg.Instance)
	}
}

func (a *Advertiser) interfaces() ([]net.Interface, error) {
	if a.cfg.Interface == "" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(a.cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("discovery: interface %q: %w", a.cfg.Interface, err)
	}
	return []net.Interface{*iface}, nil
}

// TXTStrings encodes records as sorted key=value strings.
func TXTStrings(txt map[string]string) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// PortOf extracts the numeric port from a listen address such as ":80".
func PortOf(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("discovery: parse address %q: %w", addr, err)
	}
	port, err := net.LookupPort("tcp", p)
	if err != nil {
		return 0, fmt.Errorf("discovery: parse port %q: %w", p, err)
	}
	return port, nil
}
