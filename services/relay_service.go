package services

import (
	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/observability"
	"dm-relay/repositories"
)

// IRelayService is the read-side surface exposed over HTTP, next to the
// websocket pipeline that does the actual relaying.
type IRelayService interface {
	Thread(userID, peerID string) ([]domain.Message, error)
	Stats() observability.Stats
	Online() []string
}

type RelayService struct {
	messages repositories.IMessageRepository
	presence contract.IPresence
	monitor  *observability.Monitor
}

func NewRelayService(messages repositories.IMessageRepository, presence contract.IPresence,
	monitor *observability.Monitor) IRelayService {
	return &RelayService{messages: messages, presence: presence, monitor: monitor}
}

// Thread returns the conversation between the caller and a peer, ascending by
// creation time. Fetching marks the peer's unread messages as read.
func (s *RelayService) Thread(userID, peerID string) ([]domain.Message, error) {
	return s.messages.FindThread(userID, peerID)
}

func (s *RelayService) Stats() observability.Stats {
	return s.monitor.Snapshot()
}

func (s *RelayService) Online() []string {
	return s.presence.Online()
}
