// Package cluster names the fixed set of networks the tracker knows about.
// The numeric values are persisted in the cluster column and must not change.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Cluster uint8

const (
	Devnet  Cluster = 0
	Testnet Cluster = 1
	Mainnet Cluster = 2
)

// ErrUnknownCluster is returned by Parse for names outside the closed set.
var ErrUnknownCluster = errors.New("unknown cluster")

var names = map[Cluster]string{
	Devnet:  "devnet",
	Testnet: "testnet",
	Mainnet: "mainnet",
}

// All lists every cluster in persisted-value order.
func All() []Cluster {
	return []Cluster{Devnet, Testnet, Mainnet}
}

func (c Cluster) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("cluster(%d)", uint8(c))
}

// Valid reports whether c is one of the known clusters.
func (c Cluster) Valid() bool {
	_, ok := names[c]
	return ok
}

// Parse maps a route or config name onto a Cluster. Matching is case-insensitive.
func Parse(name string) (Cluster, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c, cn := range names {
		if cn == n {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCluster, name)
}

// ParseList parses every name, failing on the first unknown one.
func ParseList(in []string) ([]Cluster, error) {
	out := make([]Cluster, 0, len(in))
	for _, n := range in {
		c, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// FromValue converts a stored SMALLINT back into a Cluster.
func FromValue(v int16) (Cluster, error) {
	if v < 0 || v > math.MaxUint8 || !Cluster(v).Valid() {
		return 0, fmt.Errorf("%w: value %d", ErrUnknownCluster, v)
	}
	return Cluster(v), nil
}

// MarshalText lets clusters appear by name in JSON payloads and Temporal inputs.
func (c Cluster) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: value %d", ErrUnknownCluster, uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Cluster) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
