package match

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

func TestParseFilter(t *testing.T) {
	tt := []struct {
		name   string
		filter bson.D
		expect string
	}{
		{
			name:   "implicit equality",
			filter: bson.D{{Key: "a", Value: int32(5)}},
			expect: `a: {$eq: 5}`,
		},
		{
			name:   "implicit and",
			filter: bson.D{{Key: "age", Value: bson.D{{Key: "$gte", Value: 18}}}, {Key: "tags", Value: bson.D{{Key: "$in", Value: bson.A{"x", "y"}}}}},
			expect: `$and[{age: {$gte: 18}}, {tags: {$in: ["x", "y"]}}]`,
		},
		{
			name:   "operators",
			filter: bson.D{{Key: "a.b", Value: bson.D{{Key: "$gt", Value: 1.5}, {Key: "$lte", Value: int64(9)}, {Key: "$ne", Value: nil}}}},
			expect: `a.b: {$gt: 1.5, $lte: 9, $ne: null}`,
		},
		{
			name: "or with exists",
			filter: bson.D{{Key: "$or", Value: bson.A{
				bson.D{{Key: "a", Value: true}},
				bson.D{{Key: "b", Value: bson.D{{Key: "$exists", Value: int32(1)}}}},
				bson.D{{Key: "c", Value: bson.D{{Key: "$exists", Value: false}}}},
			}}},
			expect: `$or[{a: {$eq: true}}, {b: {$exists: true}}, {c: {$exists: false}}]`,
		},
		{
			name: "nested nor and and",
			filter: bson.D{{Key: "$nor", Value: bson.A{
				bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "a", Value: "x"}},
					bson.D{{Key: "b", Value: bson.D{{Key: "$nin", Value: bson.A{int32(1), int32(2)}}}}},
				}}},
			}}},
			expect: `$nor[{$and[{a: {$eq: "x"}}, {b: {$nin: [1, 2]}}]}]`,
		},
		{
			name:   "not holds negated operators",
			filter: bson.D{{Key: "a", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$in", Value: bson.A{int32(1)}}, {Key: "$exists", Value: true}}}}}},
			expect: `a: {$not: {$nin: [1], $exists: false}}`,
		},
		{
			name:   "not of equality",
			filter: bson.D{{Key: "a", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$eq", Value: "x"}, {Key: "$ne", Value: "y"}}}}}},
			expect: `a: {$not: {$ne: "x", $eq: "y"}}`,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			clause, err := ParseFilter(mustDoc(t, tc.filter))
			require.NoError(t, err)
			require.Equal(t, tc.expect, clause.String())

			_, err = Compile(clause)
			require.NoError(t, err)
		})
	}
}

func TestParseFilter_Matches(t *testing.T) {
	filter := mustDoc(t, bson.D{
		{Key: "age", Value: bson.D{{Key: "$gte", Value: int32(18)}}},
		{Key: "tags", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$in", Value: bson.A{"banned"}}}}}},
	})
	clause, err := ParseFilter(filter)
	require.NoError(t, err)
	stage := MustCompile(clause)

	require.True(t, stage.Test(mustDoc(t, bson.D{{Key: "age", Value: 30}, {Key: "tags", Value: bson.A{"a"}}})))
	require.True(t, stage.Test(mustDoc(t, bson.D{{Key: "age", Value: 30}})))
	require.False(t, stage.Test(mustDoc(t, bson.D{{Key: "age", Value: 30}, {Key: "tags", Value: bson.A{"a", "banned"}}})))
	require.False(t, stage.Test(mustDoc(t, bson.D{{Key: "age", Value: 3}, {Key: "tags", Value: bson.A{"a"}}})))
}

func TestParseFilter_Errors(t *testing.T) {
	tt := []struct {
		name   string
		filter bson.D
	}{
		{"empty", bson.D{}},
		{"unsupported top-level operator", bson.D{{Key: "$where", Value: "true"}}},
		{"unsupported operator", bson.D{{Key: "a", Value: bson.D{{Key: "$regex", Value: "x"}}}}},
		{"range inside not", bson.D{{Key: "a", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$gt", Value: 1}}}}}}},
		{"not of literal", bson.D{{Key: "a", Value: bson.D{{Key: "$not", Value: 1}}}}},
		{"and of document", bson.D{{Key: "$and", Value: bson.D{{Key: "a", Value: 1}}}}},
		{"empty or", bson.D{{Key: "$or", Value: bson.A{}}}},
		{"or of scalars", bson.D{{Key: "$or", Value: bson.A{1}}}},
		{"in of scalar", bson.D{{Key: "a", Value: bson.D{{Key: "$in", Value: 1}}}}},
		{"document literal", bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: 1}}}}},
		{"array literal", bson.D{{Key: "a", Value: bson.A{1, 2}}}},
		{"decimal literal", bson.D{{Key: "a", Value: primitive.NewDecimal128(0, 1)}}},
		{"regex literal", bson.D{{Key: "a", Value: primitive.Regex{Pattern: "x"}}}},
		{"generic binary literal", bson.D{{Key: "a", Value: primitive.Binary{Subtype: 0, Data: []byte{1}}}}},
		{"short uuid", bson.D{{Key: "a", Value: primitive.Binary{Subtype: 4, Data: []byte{1, 2}}}}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFilter(mustDoc(t, tc.filter))
			require.ErrorIs(t, err, errors.ErrInvalidFilter)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseFilter([]byte{1, 2, 3})
		require.ErrorIs(t, err, errors.ErrInvalidFilter)
	})
}

func TestLiteralFromBSON(t *testing.T) {
	id := primitive.NewObjectID()
	u := uuid.MustParse("5f3b6a5e-4b8c-4f6a-9d3e-1c2b3a4d5e6f")

	doc := mustDoc(t, bson.D{
		{Key: "null", Value: nil},
		{Key: "bool", Value: true},
		{Key: "date", Value: primitive.DateTime(1234)},
		{Key: "int32", Value: int32(-7)},
		{Key: "int64", Value: int64(1) << 40},
		{Key: "double", Value: 0.25},
		{Key: "string", Value: "hello"},
		{Key: "oid", Value: id},
		{Key: "uuid", Value: primitive.Binary{Subtype: 4, Data: u[:]}},
	})

	expect := map[string]types.Value{
		"null":   types.NullValue(),
		"bool":   types.BoolValue(true),
		"date":   types.DateMillisValue(1234),
		"int32":  types.Int64Value(-7),
		"int64":  types.Int64Value(1 << 40),
		"double": types.DoubleValue(0.25),
		"string": types.StringValue("hello"),
		"oid":    types.ObjectIDValue(id),
		"uuid":   types.UUIDValue(u),
	}

	for key, want := range expect {
		t.Run(key, func(t *testing.T) {
			actual, err := LiteralFromBSON(doc.Lookup(key))
			require.NoError(t, err)
			require.Equal(t, want.Type(), actual.Type())
			require.Equal(t, want.String(), actual.String())
		})
	}
}
