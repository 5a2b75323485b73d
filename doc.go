// Package objgraph serializes polymorphic object graphs to and from a
// JSON-compatible value tree.
//
// Serialization is driven by runtime classification of values in a fixed
// precedence order; deserialization is driven entirely by the reserved
// "_type" discriminator in the wire tree, so readers never need Go type
// information. Types participate by implementing the Convertible contract
// and registering a decoder under a string type name:
//
//	type Point struct {
//		X int `json:"x"`
//		Y int `json:"y"`
//	}
//
//	func (p *Point) ToJSON(opts objgraph.Options) (map[string]any, error) {
//		return objgraph.ToJSONDict("geo.Point", map[string]any{"x": p.X, "y": p.Y}, opts)
//	}
//
//	func init() {
//		objgraph.MustRegister("geo.Point", objgraph.NewStructType(Point{}))
//	}
//
// Live type, function and method handles are serialized as relocatable
// dotted names through the symtab package. Synthesized callables (see the
// sig package) additionally embed their compiled expression source so they
// survive a round trip without being resolvable by name.
package objgraph
