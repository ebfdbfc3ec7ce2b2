package enums

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventOrderCreated    OutboxEventType = "order.created"
	EventOrderCancelled  OutboxEventType = "order.cancelled"
	EventPaymentCaptured OutboxEventType = "payment.captured"
	EventPaymentFailed   OutboxEventType = "payment.failed"
	EventReviewCreated   OutboxEventType = "review.created"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProduct OutboxAggregateType = "product"
)
