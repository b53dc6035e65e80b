package compile_test

import (
	"fmt"

	"github.com/greenroom-ai/traceviz/pkg/compile"
	"github.com/greenroom-ai/traceviz/pkg/trace"
)

func ExampleCompile() {
	intent := "product_inquiry"
	tr := trace.DecisionTrace{
		Query:  "got any blue dream?",
		Intent: &intent,
		Entities: []trace.Entity{
			{Type: "strain", Value: "blue dream", Confidence: 0.88},
		},
	}

	g := compile.Compile(tr)
	fmt.Printf("nodes: %d\n", len(g.Nodes))
	fmt.Printf("root: %s at y=%d\n", g.Nodes[0].ID, g.Nodes[0].Position.Y)
	// Output:
	// nodes: 10
	// root: query at y=0
}

func ExampleCenterRow() {
	fmt.Println(compile.CenterRow(3, 200, 400))
	// Output:
	// [200 400 600]
}
