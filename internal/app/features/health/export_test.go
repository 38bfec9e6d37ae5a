package health

import "context"

// SetPingDB replaces the database probe so tests can run without Mongo.
func (h *Handler) SetPingDB(fn func(ctx context.Context) error) { h.pingDB = fn }
