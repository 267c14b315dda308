package profile

import (
	"regexp"
	"strconv"
	"strings"
)

// Family groups declared data types by how their values are modelled.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyInteger
	FamilyDecimal
	FamilyDate
	FamilyTimestamp
	FamilyBoolean
	FamilyJSON
	FamilyString
)

// DataType is a parsed declared column type.
type DataType struct {
	Raw      string
	Family   Family
	Scale    int
	HasScale bool
}

var intTypeRegex = regexp.MustCompile(`^u?int\d*$`)

// ParseDataType interprets a declared column type such as "int",
// "decimal(10,2)", "varchar(255)" or "Nullable(DateTime)".
// decimal(p) has scale 0 and a bare decimal has an unknown scale.
func ParseDataType(raw string) (DataType, error) {
	dt := DataType{Raw: raw}
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return dt, nil
	}

	base, args, hasArgs := s, "", false
	if open := strings.Index(s, "("); open >= 0 {
		closing := strings.LastIndex(s, ")")
		if closing < open {
			return dt, &SchemaInferenceError{DataType: raw, Reason: "unbalanced parentheses"}
		}
		base = strings.TrimSpace(s[:open])
		args = strings.TrimSpace(s[open+1 : closing])
		hasArgs = true
	}

	fields := strings.Fields(base)
	if len(fields) == 0 {
		return dt, &SchemaInferenceError{DataType: raw, Reason: "missing type name"}
	}
	name := fields[0]

	if name == "nullable" || name == "lowcardinality" {
		inner, err := ParseDataType(args)
		if err != nil {
			return dt, &SchemaInferenceError{DataType: raw, Reason: err.Error()}
		}
		inner.Raw = raw
		return inner, nil
	}

	switch {
	case name == "decimal" || name == "numeric" || name == "number" || strings.HasPrefix(name, "decimal"):
		dt.Family = FamilyDecimal
		if hasArgs {
			scale, err := parseScale(args)
			if err != nil {
				return dt, &SchemaInferenceError{DataType: raw, Reason: err.Error()}
			}
			dt.Scale, dt.HasScale = scale, true
		}
	case strings.HasPrefix(name, "float") || name == "double" || name == "real" || name == "money":
		dt.Family = FamilyDecimal
	case name == "integer" || intTypeRegex.MatchString(name) || strings.HasSuffix(name, "serial") ||
		name == "bigint" || name == "smallint" || name == "tinyint" || name == "mediumint":
		dt.Family = FamilyInteger
	case name == "date" || name == "date32":
		dt.Family = FamilyDate
	case strings.HasPrefix(name, "timestamp") || strings.HasPrefix(name, "datetime"):
		dt.Family = FamilyTimestamp
	case strings.HasPrefix(name, "bool"):
		dt.Family = FamilyBoolean
	case name == "json" || name == "jsonb" || name == "object":
		dt.Family = FamilyJSON
	default:
		dt.Family = FamilyString
	}
	return dt, nil
}

func parseScale(args string) (int, error) {
	parts := strings.Split(args, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch len(parts) {
	case 1:
		if _, err := strconv.Atoi(parts[0]); err != nil {
			return 0, err
		}
		return 0, nil
	case 2:
		if _, err := strconv.Atoi(parts[0]); err != nil {
			return 0, err
		}
		return strconv.Atoi(parts[1])
	default:
		return 0, strconv.ErrSyntax
	}
}

func (f Family) numeric() bool {
	return f == FamilyInteger || f == FamilyDecimal
}
