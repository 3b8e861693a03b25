package aie

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/aiesim/pipe"
	"github.com/sarchlab/aiesim/stream"
)

// Dump writes the state of the tiles and of the connections as tables.
func (a *Array) Dump(w io.Writer) {
	tileTable := table.NewWriter()
	tileTable.SetTitle("%s %s", a.name, a.geo)
	tileTable.AppendHeader(table.Row{
		"Tile", "Cascade ID", "Status",
		"Cascade In", "Cascade Out", "In Ports", "Out Ports",
	})

	for id, t := range a.tiles {
		cascadeIn, cascadeOut := "-", "-"
		if a.cascade.HasInput(t.x, t.y) {
			cascadeIn = occupancy(a.cascade.Input(t.x, t.y))
		}
		if a.cascade.HasOutput(t.x, t.y) {
			cascadeOut = occupancy(a.cascade.Output(t.x, t.y))
		}

		tileTable.AppendRow(table.Row{
			t.String(), id, t.Status(),
			cascadeIn, cascadeOut,
			portSummary(t.sw, stream.Input),
			portSummary(t.sw, stream.Output),
		})
	}

	fmt.Fprintln(w, tileTable.Render())

	conns := a.Connections()
	if len(conns) == 0 {
		return
	}

	connTable := table.NewWriter()
	connTable.SetTitle("Connections")
	connTable.AppendHeader(table.Row{"Src", "Dst", "Occupancy"})

	for _, c := range conns {
		connTable.AppendRow(table.Row{
			c.Src.String(), c.Dst.String(), a.connectionOccupancy(c),
		})
	}

	fmt.Fprintln(w, connTable.Render())
}

func (a *Array) connectionOccupancy(c Connection) string {
	switch p := c.Src.(type) {
	case TilePort:
		ch, err := a.Tile(p.X, p.Y).sw.Out(p.Index)
		if err == nil {
			return occupancy(ch)
		}
	case ShimPort:
		ch, err := a.shimChannel(a.toArray, p)
		if err == nil {
			return occupancy(ch)
		}
	}

	return "-"
}

func portSummary(sw *stream.Switch, dir stream.Direction) string {
	var ports []int
	if dir == stream.Input {
		ports = sw.InputPorts()
	} else {
		ports = sw.OutputPorts()
	}

	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		var ch *pipe.Channel
		if dir == stream.Input {
			ch, _ = sw.In(p)
		} else {
			ch, _ = sw.Out(p)
		}

		parts = append(parts, fmt.Sprintf("%d:%s", p, occupancy(ch)))
	}

	return strings.Join(parts, " ")
}

func occupancy(ch *pipe.Channel) string {
	return fmt.Sprintf("%d/%d", ch.Len(), ch.Cap())
}
