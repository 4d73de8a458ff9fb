package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrDeploymentNotFound is returned when a deployment alias is unknown.
var ErrDeploymentNotFound = errors.New("deployment not found")

// TokenMeta records the configurables a token was deployed with.
type TokenMeta struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Deployment is a recorded contract deployment.
type Deployment struct {
	Name       string    `json:"name"`
	ChainID    string    `json:"chain_id"`
	Address    string    `json:"address"`
	ContractID string    `json:"contract_id"`
	Salt       string    `json:"salt"`
	TxHash     string    `json:"tx_hash"`
	Deployer   string    `json:"deployer"`
	Create2    bool      `json:"create2"`
	Token      TokenMeta `json:"token"`
	DeployedAt time.Time `json:"deployed_at"`
}

// Registry stores deployments in a JSON file.
type Registry struct {
	path        string
	deployments map[string]*Deployment // key: "name@chainID"
}

// NewRegistry creates a Registry backed by a JSON file.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:        path,
		deployments: make(map[string]*Deployment),
	}
}

// Load reads stored deployments from disk. A missing file is not an error.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []Deployment
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", r.path, err)
	}
	for i := range entries {
		e := &entries[i]
		r.deployments[key(e.Name, e.ChainID)] = e
	}
	return nil
}

// Save writes all deployments to disk, sorted by chain then name.
func (r *Registry) Save() error {
	all := r.All()
	entries := make([]Deployment, len(all))
	for i, e := range all {
		entries[i] = *e
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}

// Add adds or replaces a deployment.
func (r *Registry) Add(d *Deployment) {
	r.deployments[key(d.Name, d.ChainID)] = d
}

// Get returns a deployment by alias and chain id.
func (r *Registry) Get(name, chainID string) (*Deployment, error) {
	d, ok := r.deployments[key(name, chainID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on chain %s", ErrDeploymentNotFound, name, chainID)
	}
	return d, nil
}

// FindByAddress returns the deployment at addr on chainID, if recorded.
func (r *Registry) FindByAddress(addr, chainID string) (*Deployment, bool) {
	for _, d := range r.deployments {
		if d.ChainID == chainID && strings.EqualFold(d.Address, addr) {
			return d, true
		}
	}
	return nil, false
}

// All returns every deployment sorted by chain id then alias.
func (r *Registry) All() []*Deployment {
	out := make([]*Deployment, 0, len(r.deployments))
	for _, d := range r.deployments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChainID != out[j].ChainID {
			return out[i].ChainID < out[j].ChainID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ForChain returns the deployments on chainID.
func (r *Registry) ForChain(chainID string) []*Deployment {
	var out []*Deployment
	for _, d := range r.All() {
		if d.ChainID == chainID {
			out = append(out, d)
		}
	}
	return out
}

// Remove deletes a deployment.
func (r *Registry) Remove(name, chainID string) error {
	k := key(name, chainID)
	if _, ok := r.deployments[k]; !ok {
		return fmt.Errorf("%w: %s on chain %s", ErrDeploymentNotFound, name, chainID)
	}
	delete(r.deployments, k)
	return nil
}

func key(name, chainID string) string {
	return name + "@" + chainID
}
