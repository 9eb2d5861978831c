package command

import (
	"errors"

	"meshchat/frame"
)

func decodeAnnounce(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	ip, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	port, err := cur.NextNumber()
	if err != nil {
		return nil, err
	}
	available, err := cur.NextNumber()
	if err != nil {
		return nil, err
	}
	city, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	lat, err := cur.NextFloat()
	if err != nil {
		return nil, err
	}
	lng, err := cur.NextFloat()
	if err != nil {
		return nil, err
	}
	peersFrame, err := cur.NextArray()
	if err != nil {
		return nil, err
	}
	peersCur, err := frame.NewCursor(peersFrame)
	if err != nil {
		return nil, err
	}
	var peers []PeerLatency
	for {
		name, ms, err := peersCur.NextLatency()
		if errors.Is(err, frame.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}
		peers = append(peers, PeerLatency{Name: name, Ms: ms})
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Announce{
		Envelope:          env,
		IP:                ip,
		Port:              port,
		AvailableIncoming: available,
		City:              city,
		Lat:               lat,
		Lng:               lng,
		Peers:             peers,
	}, nil
}

func encodeAnnounce(c Announce) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagAnnounce))}, envelopeFrames(c.Envelope)...)
	peers := make([]*frame.Frame, len(c.Peers))
	for i, p := range c.Peers {
		peers[i] = frame.Latency(p.Name, p.Ms)
	}
	items = append(items,
		frame.Text(c.IP),
		frame.Number(c.Port),
		frame.Number(c.AvailableIncoming),
		frame.Text(c.City),
		frame.Float(c.Lat),
		frame.Float(c.Lng),
		frame.NewArray(peers...),
	)
	return frame.NewArray(items...)
}
