package rpc

// registerAllMethods registers all RPC methods.
// This function is called by NewServer to set up the complete method
// registry.
func (s *Server) registerAllMethods() {
	// Server Information Methods
	s.registry.Register("server_info", &ServerInfoMethod{})
	s.registry.Register("ping", &PingMethod{})
	s.registry.Register("version", &VersionMethod{})

	// Auction Methods
	s.registry.Register("auction_create", &AuctionCreateMethod{})
	s.registry.Register("auction_price", &AuctionPriceMethod{})
	s.registry.Register("auction_execute", &AuctionExecuteMethod{})
	s.registry.Register("auction_cancel", &AuctionCancelMethod{})
	s.registry.Register("auction_info", &AuctionInfoMethod{})
	s.registry.Register("auction_list", &AuctionListMethod{})
	s.registry.Register("auction_history", &AuctionHistoryMethod{})

	// Subscription Methods (WebSocket only)
	s.registry.Register("subscribe", &SubscribeMethod{})
	s.registry.Register("unsubscribe", &UnsubscribeMethod{})
}
