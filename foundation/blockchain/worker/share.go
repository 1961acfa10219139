package worker

// shareOperations handles sharing new blocks and the mempool.
func (w *Worker) shareOperations() {
	w.evHandler("worker: shareOperations: G started")
	defer w.evHandler("worker: shareOperations: G completed")

	for {
		select {
		case block := <-w.shareBlock:
			if !w.isShutdown() {
				if err := w.state.NetSendBlockToPeers(block); err != nil {
					w.evHandler("worker: shareOperations: NetSendBlockToPeers: WARNING: %s", err)
				}
			}
		case <-w.sharePool:
			if !w.isShutdown() {
				w.state.NetSendPoolToPeers()
			}
		case <-w.shut:
			w.evHandler("worker: shareOperations: received shut signal")
			return
		}
	}
}
