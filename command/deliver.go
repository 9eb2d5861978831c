package command

import "meshchat/frame"

// Deliver is re-broadcast rather than routed (§4.3); a shortest-path
// variant over the adjacency map's union is a documented, undemonstrated
// extension point (§9), not implemented here so Deliver's observable
// behavior matches Broadcast's as specified.
func decodeDeliver(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	dest, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	data, err := cur.NextBytes()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Deliver{Envelope: env, Destination: dest, Data: data}, nil
}

func encodeDeliver(c Deliver) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagDeliver))}, envelopeFrames(c.Envelope)...)
	items = append(items, frame.Text(c.Destination), frame.Bulk(c.Data))
	return frame.NewArray(items...)
}
