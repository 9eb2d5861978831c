package command

import (
	"errors"

	"meshchat/frame"
)

// decodeWhisper enforces the canonical form chosen to resolve §9's Open
// Question on incompatible source encodings: ["whisper", source, seq,
// destination, message, path].
func decodeWhisper(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	dest, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	msg, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	pathFrame, err := cur.NextArray()
	if err != nil {
		return nil, err
	}
	pathCur, err := frame.NewCursor(pathFrame)
	if err != nil {
		return nil, err
	}
	var path []string
	for {
		hop, err := pathCur.NextText()
		if errors.Is(err, frame.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}
		path = append(path, hop)
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Whisper{Envelope: env, Destination: dest, Message: msg, Path: path}, nil
}

func encodeWhisper(c Whisper) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagWhisper))}, envelopeFrames(c.Envelope)...)
	path := make([]*frame.Frame, len(c.Path))
	for i, hop := range c.Path {
		path[i] = frame.Text(hop)
	}
	items = append(items, frame.Text(c.Destination), frame.Text(c.Message), frame.NewArray(path...))
	return frame.NewArray(items...)
}

// NextHop returns the head of path and the remaining path, or ok=false if
// path is empty. Whisper's apply effect (§4.3) stops entirely when path is
// empty rather than sending anywhere.
func (c Whisper) NextHop() (hop string, rest []string, ok bool) {
	if len(c.Path) == 0 {
		return "", nil, false
	}
	return c.Path[0], c.Path[1:], true
}
