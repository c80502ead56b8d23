// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"strings"

	"codello.dev/asn1schema"
)

// TagSet is a set of tags. The order of the elements reflects the order of
// the schema nodes that contributed them. A nil TagSet means that a schema
// has no static set of possible tags.
type TagSet []asn1schema.Tag

// Contains reports whether t is an element of s.
func (s TagSet) Contains(t asn1schema.Tag) bool {
	for _, u := range s {
		if u == t {
			return true
		}
	}
	return false
}

func (s TagSet) String() string {
	if s == nil {
		return "{*}"
	}
	var b strings.Builder
	b.WriteString("{")
	for i, t := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString("}")
	return b.String()
}

// PossibleTags returns the set of tags that can appear at the start of an
// encoding of s. Schemas of kind [KindAny], [KindDynamic] and [KindNothing]
// have no static set of tags and return a nil set. The same is true for a
// CHOICE with such an alternative.
//
// An error is returned if s is a CHOICE with alternatives that share a tag or
// an implicit tag over a schema that does not have exactly one possible tag.
// The result is computed once and cached.
func (s *Schema) PossibleTags() (TagSet, error) {
	s.tagsOnce.Do(func() {
		s.tags, s.tagsErr = s.possibleTags()
	})
	return s.tags, s.tagsErr
}

func (s *Schema) possibleTags() (TagSet, error) {
	switch s.kind {
	case KindBoolean:
		return TagSet{asn1schema.Universal(asn1schema.TagBoolean, false)}, nil
	case KindInteger:
		return TagSet{asn1schema.Universal(asn1schema.TagInteger, false)}, nil
	case KindReal:
		return TagSet{asn1schema.Universal(asn1schema.TagReal, false)}, nil
	case KindNull:
		return TagSet{asn1schema.Universal(asn1schema.TagNull, false)}, nil
	case KindBitString:
		return TagSet{asn1schema.Universal(asn1schema.TagBitString, false)}, nil
	case KindOctetString:
		return TagSet{asn1schema.Universal(asn1schema.TagOctetString, false)}, nil
	case KindObjectIdentifier:
		return TagSet{asn1schema.Universal(asn1schema.TagOID, false)}, nil
	case KindString:
		return TagSet{asn1schema.Universal(s.stringKind.TagNumber(), false)}, nil
	case KindTime:
		return TagSet{asn1schema.Universal(s.timeKind.TagNumber(), false)}, nil
	case KindSequence, KindSequenceOf:
		return TagSet{asn1schema.Universal(asn1schema.TagSequence, true)}, nil
	case KindSetOf:
		return TagSet{asn1schema.Universal(asn1schema.TagSet, true)}, nil
	case KindChoice:
		tags := TagSet{}
		static := true
		for _, alt := range s.alts {
			ts, err := alt.PossibleTags()
			if err != nil {
				return nil, err
			}
			if ts == nil {
				static = false
				continue
			}
			for _, t := range ts {
				if tags.Contains(t) {
					return nil, newError("", ErrDuplicateTag, "%v in CHOICE", t)
				}
				tags = append(tags, t)
			}
		}
		if !static {
			return nil, nil
		}
		return tags, nil
	case KindImplicit:
		ts, err := s.inner.PossibleTags()
		if err != nil {
			return nil, err
		}
		if len(ts) != 1 {
			return nil, newError("", ErrAmbiguousImplicitTag, "[%d] IMPLICIT over %v", s.number, ts)
		}
		return TagSet{asn1schema.ContextSpecific(s.number, ts[0].Constructed)}, nil
	case KindExplicit:
		if _, err := s.inner.PossibleTags(); err != nil {
			return nil, err
		}
		return TagSet{asn1schema.ContextSpecific(s.number, true)}, nil
	case KindOptional, KindType, KindVersion, KindVersioned:
		return s.inner.PossibleTags()
	}
	// KindAny, KindDynamic, KindNothing
	return nil, nil
}
