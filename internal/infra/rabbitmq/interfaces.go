package rabbitmq

import "order-dashboard/internal/push"

var _ push.Transport = (*Subscriber)(nil)
