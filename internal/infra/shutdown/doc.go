// Package shutdown coordinates graceful process shutdown.
//
// A Handler waits for SIGINT, SIGTERM or an explicit Trigger and then runs
// the registered hooks in reverse order under one timeout:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(gw.Shutdown)
//	go func() {
//		if err := gw.Serve(); err != nil {
//			h.Trigger("serve failed")
//		}
//	}()
//	return h.Wait()
package shutdown
