package artnet

import (
	"fmt"
	"strings"

	"github.com/Haba1234/go-artnet"
)

// Node is a discovered Art-Net node.
type Node struct {
	IP           string   `json:"ip"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Manufacturer string   `json:"manufacturer"`
	Description  string   `json:"description"`
	Inputs       []string `json:"inputs"`
	Outputs      []string `json:"outputs"`
	Universes    []int    `json:"universes"`
}

func (n Node) String() string {
	return fmt.Sprintf(
		"IP=%s name=%q type=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
		n.IP, n.Name, n.Type, n.Manufacturer, n.Description,
		strings.Join(n.Inputs, "; "), strings.Join(n.Outputs, "; "),
	)
}

func describe(n *artnet.ControlledNode) Node {
	node := Node{
		IP:           n.UDPAddress.String(),
		Name:         n.Node.Name,
		Type:         n.Node.Type.String(),
		Manufacturer: n.Node.Manufacturer,
		Description:  n.Node.Description,
	}
	for _, p := range n.Node.InputPorts {
		node.Inputs = append(node.Inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}
	for _, p := range n.Node.OutputPorts {
		node.Outputs = append(node.Outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
		node.Universes = append(node.Universes, int(p.Address.Integer()))
	}
	return node
}
