package rmq

import "time"

// SystemAttribute mirrors message.system_attribute on the wire, field
// for field.
type SystemAttribute struct {
	BornTimestamp     int64
	ProducerGroup     string
	ProducerGroupARN  string
	MessageID         string
	BornHost          string
	PartitionID       int32
	DelayLevel        int32 // mutually exclusive with DeliveryTimestamp
	DeliveryTimestamp int64
	BodyEncoding      BodyEncoding
	MessageType       MessageType
	TraceContext      string
	Tag               string
	Keys              []string
}

// SendMessageRequest mirrors the semantic fields of the protobuf
// SendMessageRequest. Protobuf code generation itself is out of scope;
// these are plain Go structs so a real .proto mapping is mechanical,
// not a design decision.
type SendMessageRequest struct {
	TopicARN        string
	TopicName       string
	SystemAttribute SystemAttribute
	UserAttribute   map[string]string
	Body            []byte
}

// buildSendMessageRequest constructs the request once per send0 call:
// body encoding, every system attribute, and the initial partition id
// from the first candidate. The message id is generated exactly once
// here and must never be regenerated across retries.
func buildSendMessageRequest(cfg *Config, msg *Message, initial Partition, now time.Time) (*SendMessageRequest, error) {
	msgID, err := newMessageID()
	if err != nil {
		return nil, newErr(KindTransportFailure, "buildRequest", err)
	}

	body, encoding := compressBody(msg.Body, cfg.MessageCompressionLevel)

	sa := SystemAttribute{
		BornTimestamp:    now.UnixMilli(),
		ProducerGroup:    cfg.Group,
		ProducerGroupARN: cfg.ARN,
		MessageID:        msgID,
		BornHost:         bornHost(),
		PartitionID:      initial.ID,
		BodyEncoding:     encoding,
		MessageType:      classifyMessageType(msg),
		Tag:              msg.Tag,
		Keys:             msg.Keys,
	}
	// Delay level takes precedence over an absolute delivery timestamp
	// when both are present.
	if msg.Delay.Level > 0 {
		sa.DelayLevel = msg.Delay.Level
	} else if msg.Delay.DeliveryTimestamp > 0 {
		sa.DeliveryTimestamp = msg.Delay.DeliveryTimestamp
	}

	return &SendMessageRequest{
		TopicARN:        cfg.ARN,
		TopicName:       msg.Topic,
		SystemAttribute: sa,
		UserAttribute:   msg.Attributes,
		Body:            body,
	}, nil
}

// withPartition returns a shallow copy of req with only the partition id
// substituted; everything else, especially the message id, is preserved
// across a retry.
func withPartition(req *SendMessageRequest, partitionID int32) *SendMessageRequest {
	cp := *req
	cp.SystemAttribute.PartitionID = partitionID
	return &cp
}

// EndTransactionRequest mirrors the transaction terminator call. The
// check-back listener that would complete the transactional flow is
// explicitly out of scope.
type EndTransactionRequest struct {
	Topic         string
	MessageID     string
	TransactionID string
	Commit        bool
}

type EndTransactionResponse struct {
	OK bool
}

// SendMessageResponse mirrors the broker's reply fields on a successful
// send.
type SendMessageResponse struct {
	OK            bool
	MessageID     string
	PartitionID   int32
	QueueOffset   int64 // -1 if not reported
	TransactionID string
}
