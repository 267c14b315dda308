package mongodb

import (
	"fmt"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// samplePipeline draws size random documents, or all of them when size is
// not positive, keeping only the included fields.
func samplePipeline(size int, include []string) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if size > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}})
	}
	if len(include) > 0 {
		projection := bson.D{}
		for _, field := range include {
			projection = append(projection, bson.E{Key: field, Value: 1})
		}
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: projection}})
	}
	return pipeline
}

func referencePipeline(field string, n int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}}}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}},
		{{Key: "$project", Value: bson.D{{Key: field, Value: 1}}}},
	}
}

// documentsToSample collects fields in first-seen order. _id is dropped
// unless it is explicitly included.
func documentsToSample(docs []bson.D, include []string) *types.Sample {
	keepID := false
	for _, field := range include {
		if field == "_id" {
			keepID = true
		}
	}

	var order []string
	fieldTypes := make(map[string]string)
	fieldCount := make(map[string]int)
	rows := make([]map[string]interface{}, 0, len(docs))

	for _, doc := range docs {
		row := make(map[string]interface{}, len(doc))
		for _, elem := range doc {
			if elem.Key == "_id" && !keepID {
				continue
			}
			value := convertBSONValue(elem.Value)
			row[elem.Key] = value
			inferred := inferBSONType(elem.Value)
			if _, seen := fieldTypes[elem.Key]; !seen {
				order = append(order, elem.Key)
				fieldTypes[elem.Key] = inferred
			} else if value != nil && fieldTypes[elem.Key] != inferred {
				if fieldTypes[elem.Key] == "null" {
					fieldTypes[elem.Key] = inferred
				} else {
					fieldTypes[elem.Key] = "mixed"
				}
			}
			if value != nil {
				fieldCount[elem.Key]++
			}
		}
		rows = append(rows, row)
	}

	columns := make([]types.SchemaColumn, len(order))
	for i, field := range order {
		columns[i] = types.SchemaColumn{
			Name:     field,
			Type:     declaredType(fieldTypes[field]),
			Nullable: fieldCount[field] < len(docs),
		}
	}
	return &types.Sample{Columns: columns, Rows: rows}
}

// declaredType maps an inferred BSON type onto a name the profiler
// understands. Mixed and empty fields are left for value detection.
func declaredType(bsonType string) string {
	switch bsonType {
	case "string", "int", "double", "bool", "object":
		return bsonType
	case "date":
		return "timestamp"
	case "decimal":
		return "decimal"
	}
	return ""
}

// inferBSONType infers the MongoDB type from a decoded value.
func inferBSONType(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case int, int32, int64:
		return "int"
	case float32, float64:
		return "double"
	case bool:
		return "bool"
	case bson.M, bson.D, map[string]interface{}:
		return "object"
	case bson.A, []interface{}:
		return "array"
	case primitive.DateTime, primitive.Timestamp, time.Time:
		return "date"
	case primitive.Decimal128:
		return "decimal"
	case nil, primitive.Null, primitive.Undefined:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// convertBSONValue converts BSON values to standard Go types.
func convertBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		result := make(map[string]interface{}, len(val))
		for k, v := range val {
			result[k] = convertBSONValue(v)
		}
		return result
	case bson.A:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = convertBSONValue(v)
		}
		return result
	case bson.D:
		result := make(map[string]interface{}, len(val))
		for _, elem := range val {
			result[elem.Key] = convertBSONValue(elem.Value)
		}
		return result
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		return val.String()
	case primitive.Null, primitive.Undefined:
		return nil
	case int32:
		return int64(val)
	default:
		return v
	}
}

func lookup(doc bson.D, key string) interface{} {
	for _, elem := range doc {
		if elem.Key == key {
			return elem.Value
		}
	}
	return nil
}

func toDocument(columns []string, row []interface{}) (bson.D, error) {
	if len(row) != len(columns) {
		return nil, fmt.Errorf("row has %d values, %d columns expected", len(row), len(columns))
	}
	doc := make(bson.D, len(columns))
	for i, c := range columns {
		doc[i] = bson.E{Key: c, Value: row[i]}
	}
	return doc, nil
}
