package app

import (
	"fmt"
	"path/filepath"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/adapters/web"
	"github.com/corey/percept/internal/config"
)

// Paths holds every resolved filesystem location and address the daemon uses.
// Relative paths in the config are resolved against the config file's
// directory, so a daemon started from anywhere reads the same data.
type Paths struct {
	Config   string // absolute config path (may not exist)
	BaseDir  string // directory of Config
	Bolt     string // bbolt corpus file; empty for the mongo driver
	Names    string // alternate-name CSV; empty when none is configured
	Socket   string // Unix socket
	HTTPAddr string // API listen address
}

// NewPaths resolves cfg into absolute locations.
func NewPaths(cfg *config.Config) *Paths {
	cfgPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		cfgPath = cfg.Path
	}
	base := filepath.Dir(cfgPath)

	p := &Paths{
		Config:  cfgPath,
		BaseDir: base,
		Names:   resolve(base, cfg.Names.Path),
		Socket:  cfg.Server.SocketPath,
	}
	if cfg.Store.Driver == config.DriverBolt {
		p.Bolt = resolve(base, cfg.Store.BoltPath)
	}
	if p.Socket == "" {
		p.Socket = socket.SocketPath(cfgPath)
	}
	p.HTTPAddr = cfg.Server.HTTPAddr
	if p.HTTPAddr == "" {
		p.HTTPAddr = fmt.Sprintf("127.0.0.1:%d", web.DefaultPort(cfgPath))
	}
	return p
}

// Watched returns the data files whose changes trigger a reload.
func (p *Paths) Watched() []string {
	var out []string
	if p.Names != "" {
		out = append(out, p.Names)
	}
	if p.Bolt != "" {
		out = append(out, p.Bolt)
	}
	return out
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
