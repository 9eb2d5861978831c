package command

import "meshchat/frame"

func decodeExtension(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	id, err := cur.NextNumber()
	if err != nil {
		return nil, err
	}
	payload, err := cur.Next()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Extension{Envelope: env, ExtensionID: id, Payload: payload}, nil
}

func encodeExtension(c Extension) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagExtension))}, envelopeFrames(c.Envelope)...)
	payload := c.Payload
	if payload == nil {
		payload = frame.Null()
	}
	items = append(items, frame.Number(c.ExtensionID), payload)
	return frame.NewArray(items...)
}
