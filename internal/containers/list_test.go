package containers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type taskNode struct {
	Node
	id int
}

func TestNode_EmptyRing(t *testing.T) {
	var head Node
	head.Init()
	require.True(t, head.Empty())
	require.Nil(t, head.Next())
}

func TestNode_InsertAfterAndWalkOrder(t *testing.T) {
	var head Node
	head.Init()

	a := &taskNode{id: 1}
	b := &taskNode{id: 2}
	c := &taskNode{id: 3}
	a.Init()
	b.Init()
	c.Init()
	byNode := map[*Node]int{&a.Node: a.id, &b.Node: b.id, &c.Node: c.id}

	head.InsertAfter(&a.Node)
	a.Node.InsertAfter(&b.Node)
	b.Node.InsertAfter(&c.Node)

	var order []int
	head.ForEach(func(n *Node) {
		order = append(order, byNode[n])
	})
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestNode_Remove(t *testing.T) {
	var head Node
	head.Init()
	a := &taskNode{id: 1}
	b := &taskNode{id: 2}
	a.Init()
	b.Init()
	byNode := map[*Node]int{&a.Node: a.id, &b.Node: b.id}
	head.InsertAfter(&a.Node)
	a.Node.InsertAfter(&b.Node)

	a.Node.Remove()
	require.True(t, a.Node.Empty())

	var order []int
	head.ForEach(func(n *Node) {
		order = append(order, byNode[n])
	})
	require.Equal(t, []int{2}, order)
}

func TestNode_InsertBefore(t *testing.T) {
	var head Node
	head.Init()
	a := &taskNode{id: 1}
	b := &taskNode{id: 2}
	a.Init()
	b.Init()
	byNode := map[*Node]int{&a.Node: a.id, &b.Node: b.id}

	head.InsertAfter(&b.Node)
	b.Node.InsertBefore(&a.Node)

	var order []int
	head.ForEach(func(n *Node) {
		order = append(order, byNode[n])
	})
	require.Equal(t, []int{1, 2}, order)
}
