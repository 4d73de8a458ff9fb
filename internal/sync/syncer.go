// Package sync shares deployment records between machines through a JSON
// manifest, so CI jobs and teammates can reuse tokens deployed elsewhere.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Manifest is the structure of a shared deployments manifest.
type Manifest struct {
	Deployments map[string]map[string]ManifestEntry `json:"deployments" yaml:"deployments"` // alias → chain id → entry
}

// ManifestEntry is a single deployment in a manifest.
type ManifestEntry struct {
	Address  string             `json:"address" yaml:"address"`
	Salt     string             `json:"salt,omitempty" yaml:"salt,omitempty"`
	TxHash   string             `json:"tx_hash,omitempty" yaml:"tx_hash,omitempty"`
	Deployer string             `json:"deployer,omitempty" yaml:"deployer,omitempty"`
	Create2  bool               `json:"create2,omitempty" yaml:"create2,omitempty"`
	Token    contract.TokenMeta `json:"token" yaml:"token"`
}

// Result counts what a sync did to the registry.
type Result struct {
	Added     int
	Updated   int
	Unchanged int
	Skipped   int
}

// Verifier confirms an entry is live on one chain before it is imported.
type Verifier struct {
	ChainID string
	Client  *chain.EVMClient
}

// Syncer imports manifests into a deployment registry.
type Syncer struct {
	reg    *contract.Registry
	client *http.Client
	now    func() time.Time
}

// New creates a new Syncer.
func New(reg *contract.Registry) *Syncer {
	return &Syncer{
		reg:    reg,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run reads the manifest at source (http(s) URL or file path) and merges it
// into the registry. With a verifier, entries on its chain whose address has
// no code are skipped.
func (s *Syncer) Run(ctx context.Context, source string, v *Verifier) (Result, error) {
	var res Result
	m, err := s.load(ctx, source)
	if err != nil {
		return res, fmt.Errorf("loading manifest: %w", err)
	}

	for _, alias := range sortedKeys(m.Deployments) {
		chains := m.Deployments[alias]
		for _, chainID := range sortedKeys(chains) {
			entry := chains[chainID]
			log := logrus.WithFields(logrus.Fields{"alias": alias, "chain_id": chainID, "address": entry.Address})

			if !common.IsHexAddress(entry.Address) {
				log.Warn("skipping manifest entry with an invalid address")
				res.Skipped++
				continue
			}
			if v != nil && v.ChainID == chainID {
				code, err := v.Client.GetCode(ctx, entry.Address)
				if err != nil {
					return res, fmt.Errorf("verifying %s on chain %s: %w", alias, chainID, err)
				}
				if len(code) == 0 {
					log.Warn("skipping manifest entry with no code on chain")
					res.Skipped++
					continue
				}
			}

			next := entry.deployment(alias, chainID, s.now())
			if prev, err := s.reg.Get(alias, chainID); err == nil {
				if strings.EqualFold(prev.Address, entry.Address) {
					if sameMeta(prev, next) {
						res.Unchanged++
						continue
					}
					// Same contract, refreshed metadata: keep the original deploy time.
					next.DeployedAt = prev.DeployedAt
				}
				res.Updated++
			} else {
				res.Added++
			}
			s.reg.Add(next)
		}
	}

	if err := s.reg.Save(); err != nil {
		return res, fmt.Errorf("saving deployments: %w", err)
	}
	return res, nil
}

// Export builds a manifest from the registry, limited to chainID when set.
func Export(reg *contract.Registry, chainID string) Manifest {
	deps := reg.All()
	if chainID != "" {
		deps = reg.ForChain(chainID)
	}
	m := Manifest{Deployments: map[string]map[string]ManifestEntry{}}
	for _, d := range deps {
		if m.Deployments[d.Name] == nil {
			m.Deployments[d.Name] = map[string]ManifestEntry{}
		}
		m.Deployments[d.Name][d.ChainID] = ManifestEntry{
			Address:  d.Address,
			Salt:     d.Salt,
			TxHash:   d.TxHash,
			Deployer: d.Deployer,
			Create2:  d.Create2,
			Token:    d.Token,
		}
	}
	return m
}

// Write encodes the manifest as indented JSON.
func (m Manifest) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteYAML encodes the manifest as YAML.
func (m Manifest) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

func sameMeta(a, b *contract.Deployment) bool {
	return a.Salt == b.Salt &&
		a.TxHash == b.TxHash &&
		a.Deployer == b.Deployer &&
		a.Create2 == b.Create2 &&
		a.Token == b.Token
}

func (e ManifestEntry) deployment(alias, chainID string, at time.Time) *contract.Deployment {
	addr := common.HexToAddress(e.Address)
	return &contract.Deployment{
		Name:       alias,
		ChainID:    chainID,
		Address:    addr.Hex(),
		ContractID: src20.ContractIDFromAddress(addr).String(),
		Salt:       e.Salt,
		TxHash:     e.TxHash,
		Deployer:   e.Deployer,
		Create2:    e.Create2,
		Token:      e.Token,
		DeployedAt: at,
	}
}

func (s *Syncer) load(ctx context.Context, source string) (*Manifest, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s: %s", source, resp.Status)
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, err
		}
	} else {
		var err error
		if body, err = os.ReadFile(source); err != nil {
			return nil, err
		}
	}

	// JSON is valid YAML, so one decoder reads both formats.
	var m Manifest
	if err := yaml.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
