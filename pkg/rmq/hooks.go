package rmq

// Hook is a marker interface; concrete hook types implement one or more
// of the HookXxx sub-interfaces below. A caller registers one value that
// may answer to several notifications.
type Hook interface{}

// HookSendStart fires once an attempt's request has been built and
// signed, just before dispatch.
type HookSendStart interface {
	OnSendStart(topic, messageID string, partitionID int32, attempt int)
}

// HookSendEnd fires once an attempt completes, successfully or not.
type HookSendEnd interface {
	OnSendEnd(topic, messageID string, partitionID int32, attempt int, err error)
}

// HookRouteRefresh fires whenever the topic route cache populates or
// refreshes an entry.
type HookRouteRefresh interface {
	OnRouteRefresh(topic string, partitionCount int)
}

type hookSet []Hook

func (hs hookSet) each(fn func(Hook)) {
	for _, h := range hs {
		fn(h)
	}
}

func (hs hookSet) sendStart(topic, messageID string, partitionID int32, attempt int) {
	hs.each(func(h Hook) {
		if h, ok := h.(HookSendStart); ok {
			h.OnSendStart(topic, messageID, partitionID, attempt)
		}
	})
}

func (hs hookSet) sendEnd(topic, messageID string, partitionID int32, attempt int, err error) {
	hs.each(func(h Hook) {
		if h, ok := h.(HookSendEnd); ok {
			h.OnSendEnd(topic, messageID, partitionID, attempt, err)
		}
	})
}

func (hs hookSet) routeRefresh(topic string, n int) {
	hs.each(func(h Hook) {
		if h, ok := h.(HookRouteRefresh); ok {
			h.OnRouteRefresh(topic, n)
		}
	})
}
