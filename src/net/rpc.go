package net

// Envelope is the unit of delivery between transports. From is the advertised
// address of the sender; forwarded payloads keep the address of the node
// that first sent them.
type Envelope struct {
	From    string
	Message Message
}
