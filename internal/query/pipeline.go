// Package query composes MongoDB aggregation pipelines from named stages.
// Views built here are pure values: they can be inspected in unit tests and
// handed to the store for execution.
package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Pipeline struct {
	stages mongo.Pipeline
}

func New() *Pipeline {
	return &Pipeline{}
}

func (p *Pipeline) add(op string, v interface{}) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: op, Value: v}})
	return p
}

func (p *Pipeline) Match(filter bson.M) *Pipeline {
	return p.add("$match", filter)
}

// Lookup joins documents of from where foreignField equals localField.
// sub, when set, runs against each joined document before it is attached.
func (p *Pipeline) Lookup(from, localField, foreignField, as string, sub *Pipeline) *Pipeline {
	spec := bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: foreignField},
		{Key: "as", Value: as},
	}
	if sub != nil && len(sub.stages) > 0 {
		spec = append(spec, bson.E{Key: "pipeline", Value: sub.Build()})
	}
	return p.add("$lookup", spec)
}

// First collapses a join array into its first element. An empty join leaves
// the field missing.
func (p *Pipeline) First(field string) *Pipeline {
	return p.add("$addFields", bson.M{field: bson.M{"$first": "$" + field}})
}

func (p *Pipeline) Unwind(field string, preserveEmpty bool) *Pipeline {
	return p.add("$unwind", bson.M{
		"path":                       "$" + field,
		"preserveNullAndEmptyArrays": preserveEmpty,
	})
}

func (p *Pipeline) AddFields(fields bson.M) *Pipeline {
	return p.add("$addFields", fields)
}

func (p *Pipeline) Project(fields bson.M) *Pipeline {
	return p.add("$project", fields)
}

// Exclude drops the given fields from every document.
func (p *Pipeline) Exclude(fields ...string) *Pipeline {
	spec := bson.M{}
	for _, f := range fields {
		spec[f] = 0
	}
	return p.add("$project", spec)
}

func (p *Pipeline) Sort(order bson.D) *Pipeline {
	return p.add("$sort", order)
}

func (p *Pipeline) Skip(n int64) *Pipeline {
	return p.add("$skip", n)
}

func (p *Pipeline) Limit(n int64) *Pipeline {
	return p.add("$limit", n)
}

// Page applies skip before limit.
func (p *Pipeline) Page(pg Page) *Pipeline {
	return p.Skip(pg.Skip()).Limit(pg.Limit)
}

func (p *Pipeline) Group(spec bson.M) *Pipeline {
	return p.add("$group", spec)
}

// Count replaces the stream with a single document {field: n}; an empty input
// produces no document.
func (p *Pipeline) Count(field string) *Pipeline {
	return p.add("$count", field)
}

func (p *Pipeline) ReplaceRoot(field string) *Pipeline {
	return p.add("$replaceRoot", bson.M{"newRoot": "$" + field})
}

// OrderByRefs rewrites refsField, a list of ids, into the documents of
// resolvedField in the order of the ids. Ids with no resolved document are
// dropped.
func (p *Pipeline) OrderByRefs(resolvedField, refsField string) *Pipeline {
	pick := bson.M{"$arrayElemAt": bson.A{
		bson.M{"$filter": bson.M{
			"input": "$" + resolvedField,
			"as":    "doc",
			"cond":  bson.M{"$eq": bson.A{"$$doc._id", "$$ref"}},
		}},
		0,
	}}
	ordered := bson.M{"$filter": bson.M{
		"input": bson.M{"$map": bson.M{
			"input": bson.M{"$ifNull": bson.A{"$" + refsField, bson.A{}}},
			"as":    "ref",
			"in":    pick,
		}},
		"as":   "item",
		"cond": bson.M{"$ne": bson.A{bson.M{"$ifNull": bson.A{"$$item", nil}}, nil}},
	}}
	return p.AddFields(bson.M{refsField: ordered}).Exclude(resolvedField)
}

func (p *Pipeline) Build() mongo.Pipeline {
	out := make(mongo.Pipeline, len(p.stages))
	copy(out, p.stages)
	return out
}

// StageNames lists the operator of each stage in order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s[0].Key)
	}
	return names
}

// Stage returns the body of the i-th stage.
func (p *Pipeline) Stage(i int) interface{} {
	return p.stages[i][0].Value
}
