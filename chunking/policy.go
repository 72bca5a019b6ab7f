// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunking

import (
	"fmt"
	"strings"
)

// Kind names a splitting strategy.
type Kind uint8

const (
	kindInvalid Kind = iota
	// KindRecursive splits on characters.
	KindRecursive
	// KindToken splits on model tokens.
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindRecursive:
		return "recursive"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Unit returns the unit sizes are measured in for this kind.
func (k Kind) Unit() string {
	if k == KindToken {
		return "tokens"
	}
	return "characters"
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recursive":
		return KindRecursive, nil
	case "token":
		return KindToken, nil
	default:
		return kindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Params are the size parameters and output directory of a policy.
type Params struct {
	ChunkSize        int
	ChunkOverlap     int
	PersistDirectory string
}

// Policy is the splitting strategy of a pipeline together with its parameters.
type Policy struct {
	kind   Kind
	params Params
}

// Recursive returns a character-based splitting policy.
func Recursive(p Params) Policy {
	return Policy{kind: KindRecursive, params: p}
}

// Token returns a token-based splitting policy.
func Token(p Params) Policy {
	return Policy{kind: KindToken, params: p}
}

// NewPolicy builds a policy for kind and validates it.
func NewPolicy(kind Kind, p Params) (Policy, error) {
	policy := Policy{kind: kind, params: p}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Kind returns the splitting strategy.
func (p Policy) Kind() Kind { return p.kind }

// Params returns the policy parameters.
func (p Policy) Params() Params { return p.params }

// Directory returns the persistence directory bound to this policy.
func (p Policy) Directory() string { return p.params.PersistDirectory }

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	switch p.kind {
	case KindRecursive, KindToken:
	default:
		return ErrUnknownKind
	}
	if p.params.ChunkSize <= 0 {
		return fmt.Errorf("%w: %s chunk size %d", ErrInvalidSize, p.kind, p.params.ChunkSize)
	}
	if p.params.ChunkOverlap < 0 || p.params.ChunkOverlap >= p.params.ChunkSize {
		return fmt.Errorf("%w: %s overlap %d, size %d",
			ErrInvalidOverlap, p.kind, p.params.ChunkOverlap, p.params.ChunkSize)
	}
	if strings.TrimSpace(p.params.PersistDirectory) == "" {
		return ErrMissingDirectory
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%s(size=%d %s, overlap=%d, dir=%s)",
		p.kind, p.params.ChunkSize, p.kind.Unit(), p.params.ChunkOverlap, p.params.PersistDirectory)
}
