package dmx

import (
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a candidate serial endpoint. Path is the only
// stable identity; the USB metadata is decoration for pickers.
type PortInfo struct {
	Path         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Label renders a one-line description for port pickers.
func (p PortInfo) Label() string {
	if p.Product != "" {
		return p.Path + " (" + p.Product + ")"
	}
	return p.Path
}

// ListPorts enumerates serial ports, sorted by path.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Path:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
