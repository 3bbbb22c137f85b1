package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DomainQuery prefixes query key hashes. Version suffix enables future
// key format migration.
const DomainQuery = "f1metrix/query/v1"

// Key identifies one cache entry.
type Key string

// TableKey returns the key of a full-table load.
func TableKey(name string) Key {
	return Key("table:" + name)
}

// Request is a parameterized read query.
type Request struct {
	// SQL is the query text with ? placeholders.
	SQL string

	// Args are bound positionally to the placeholders.
	Args []any
}

// QueryKey returns the key of a parameterized query load.
//
// The key hashes the trimmed SQL and each argument tagged with its Go type,
// so 2023 and "2023" bind to different entries.
func QueryKey(req Request) (Key, error) {
	args := make([]taggedArg, len(req.Args))
	for i, a := range req.Args {
		args[i] = taggedArg{Type: fmt.Sprintf("%T", a), Value: a}
	}
	data, err := json.Marshal(keyPayload{SQL: strings.TrimSpace(req.SQL), Args: args})
	if err != nil {
		return "", fmt.Errorf("QueryKey: failed to marshal: %w", err)
	}
	return Key("query:" + hashWithDomain(DomainQuery, data)), nil
}

type keyPayload struct {
	SQL  string      `json:"sql"`
	Args []taggedArg `json:"args"`
}

type taggedArg struct {
	Type  string `json:"t"`
	Value any    `json:"v"`
}

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
