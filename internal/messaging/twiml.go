package messaging

import "encoding/xml"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// RenderTwiML wraps message in a TwiML <Response><Message> envelope.
func RenderTwiML(message string) ([]byte, error) {
	body, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
