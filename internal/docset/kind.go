package docset

import (
	"fmt"
	"strings"
)

// Kind classifies an index entry. The values double as the strings stored
// in the searchIndex table.
type Kind string

const (
	KindConstant  Kind = "Constant"
	KindEnum      Kind = "Enum"
	KindFunction  Kind = "Function"
	KindMacro     Kind = "Macro"
	KindMethod    Kind = "Method"
	KindModule    Kind = "Module"
	KindStruct    Kind = "Struct"
	KindTrait     Kind = "Trait"
	KindType      Kind = "Type"
	KindVariant   Kind = "Variant"
	KindAttribute Kind = "Attribute"
)

// AllKinds returns every known entry kind.
func AllKinds() []Kind {
	return []Kind{
		KindConstant,
		KindEnum,
		KindFunction,
		KindMacro,
		KindMethod,
		KindModule,
		KindStruct,
		KindTrait,
		KindType,
		KindVariant,
		KindAttribute,
	}
}

// UnknownEntryTypeError reports a filename kind token that is not part of
// the rustdoc naming vocabulary. It aborts an indexing run, since it means
// the docset layout no longer matches the conventions we rely on.
type UnknownEntryTypeError struct {
	Token string
}

func (e *UnknownEntryTypeError) Error() string {
	return fmt.Sprintf("unknown entry type: %s", e.Token)
}

// ParseKind maps a kind token to its Kind. Tokens come from the first
// segment of three-segment filenames ("struct.Foo.html") and from
// user-supplied kind filters; matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "constant":
		return KindConstant, nil
	case "enum":
		return KindEnum, nil
	case "fn", "function":
		return KindFunction, nil
	case "macro":
		return KindMacro, nil
	case "method":
		return KindMethod, nil
	case "module":
		return KindModule, nil
	case "struct":
		return KindStruct, nil
	case "trait":
		return KindTrait, nil
	case "type":
		return KindType, nil
	case "variant":
		return KindVariant, nil
	case "attr", "attribute":
		return KindAttribute, nil
	default:
		return "", &UnknownEntryTypeError{Token: s}
	}
}
