package profile

import "fmt"

// Kind is the semantic kind decided for a column when it is profiled.
type Kind int

const (
	KindNull Kind = iota
	KindCategorical
	KindInteger
	KindDecimal
	KindDate
	KindTimestamp
	KindString
	KindForeignKey
	KindStructured
)

var kindNames = map[Kind]string{
	KindNull:        "null",
	KindCategorical: "categorical",
	KindInteger:     "int",
	KindDecimal:     "decimal",
	KindDate:        "date",
	KindTimestamp:   "timestamp",
	KindString:      "string",
	KindForeignKey:  "foreign_key",
	KindStructured:  "structured",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a persisted kind tag back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNull, fmt.Errorf("unknown column kind %q", s)
}
