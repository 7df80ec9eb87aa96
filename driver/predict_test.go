package driver

import (
	"testing"

	"github.com/nihei9/depar/transition"
)

func TestPredict_ProducesAcyclicFullyHeadedGraph(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()
	d, ext := buildTestDictAndExtractor(sys, sent, gold, "root")

	labels := actionLabels(d)
	actions := sys.Actions(labels)
	m := buildTestModel(d, actions, ext.Flags, 7)

	graph := Predict(sys, ext, m, sent, "root")

	if len(graph.Headless()) != 0 {
		t.Fatalf("expected Predict to leave no headless tokens, got %v", graph.Headless())
	}
	for i := 1; i <= sent.Len(); i++ {
		for _, arc := range graph.Heads(i) {
			if graph.HasPathTo(i, arc.Head) {
				t.Fatalf("token %d's arc to head %d closes a cycle", i, arc.Head)
			}
		}
	}
}

func TestPredict_IsDeterministicForAFixedModel(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()
	d, ext := buildTestDictAndExtractor(sys, sent, gold, "root")

	labels := actionLabels(d)
	actions := sys.Actions(labels)
	m := buildTestModel(d, actions, ext.Flags, 42)

	first := Predict(sys, ext, m, sent, "root")
	second := Predict(sys, ext, m, sent, "root")

	if !first.Equal(second) {
		t.Fatalf("expected two Predict runs over the same model/sentence to agree")
	}
}
