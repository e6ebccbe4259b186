package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/swerve/pkg/config"
	customlog "github.com/open-teleop/swerve/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeZeroHeading    = "ZERO_HEADING"
	MsgTypeSetMode        = "SET_MODE"
	MsgTypeAck            = "ACK"
	MsgTypeTelemetry      = "TELEMETRY"
	MsgTypeError          = "ERROR"
)

const (
	pollInterval  = 500 * time.Millisecond
	socketTimeout = 1 * time.Second
)

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(msg *ZeroMQMessage) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(msg *ZeroMQMessage) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	return f(msg)
}

// NewMessage builds an outgoing message with the current time.
func NewMessage(msgType string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
		}
		raw = encoded
	}
	msg := ZeroMQMessage{
		Type:      msgType,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Data:      raw,
	}
	out, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", msgType, err)
	}
	return out, nil
}

// MessageReceiver handles receiving requests on a ZeroMQ REP socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    atomic.Bool
	wg         *sync.WaitGroup
}

// newMessageReceiver creates a new MessageReceiver
func newMessageReceiver(ctx *zmq4.Context, address string, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	// Timeouts keep shutdown from blocking on a half-finished exchange
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("MessageReceiver initialized on %s", address)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

// Start begins the message receiving loop
func (r *MessageReceiver) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Infof("MessageReceiver started")

		for r.running.Load() {
			// Poll with timeout to allow for clean shutdown
			sockets, err := r.poller.Poll(pollInterval)
			if err != nil {
				if r.running.Load() {
					r.logger.Warnf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Warnf("Error receiving message: %v", err)
				}
				continue
			}

			r.logger.Debugf("Received message (%d bytes)", len(msg))

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Warnf("Error dispatching message: %v", err)
				response = errorResponse(err)
			}

			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running.Load() {
				r.logger.Errorf("Error sending response: %v", err)
			}
		}
		r.logger.Infof("MessageReceiver stopped")
	}()
}

// Stop halts the message receiving loop. The socket is closed by the loop's
// owner once the goroutine has exited.
func (r *MessageReceiver) Stop() {
	r.running.Store(false)
}

func (r *MessageReceiver) close() {
	if r.socket != nil {
		r.socket.Close()
		r.socket = nil
	}
}

func errorResponse(err error) []byte {
	code := 500
	if errors.Is(err, ErrUnknownMessageType) || errors.Is(err, ErrInvalidMessage) {
		code = 400
	}
	data, marshalErr := NewMessage(MsgTypeError, ErrorResponse{Message: err.Error(), Code: code})
	if marshalErr != nil {
		return []byte(`{"type":"ERROR"}`)
	}
	return data
}

// MessageSender publishes messages on a ZeroMQ PUB socket
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// newMessageSender creates a new MessageSender
func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	logger.Infof("MessageSender initialized on %s", address)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	// Topic frame first, then the payload
	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes messages to the appropriate handlers
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch parses a JSON request and routes it to the handler for its type
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}

	d.logger.Debugf("Dispatching message of type: %s", msg.Type)
	return handler.HandleMessage(&msg)
}

// ZeroMQService coordinates the controller's request and publish sockets
type ZeroMQService struct {
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    atomic.Bool
	wg         sync.WaitGroup
}

// NewZeroMQService creates a new ZeroMQ service bound to the bootstrap addresses
func NewZeroMQService(cfg config.ZeroMQBootstrap, logger customlog.Logger) (*ZeroMQService, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	logger = logger.WithField("component", "zeromq")
	s := &ZeroMQService{
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
	}

	s.receiver, err = newMessageReceiver(ctx, cfg.RequestBindAddress, s.dispatcher, logger, &s.wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	s.sender, err = newMessageSender(ctx, cfg.PublishBindAddress, logger)
	if err != nil {
		s.receiver.close()
		ctx.Term()
		return nil, err
	}

	return s, nil
}

// Context returns the ZeroMQ context so other sockets share its I/O threads.
func (s *ZeroMQService) Context() *zmq4.Context { return s.ctx }

// RegisterHandler adds a handler for a specific message type
func (s *ZeroMQService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// RegisterHandlerFunc adds a handler function for a specific message type
func (s *ZeroMQService) RegisterHandlerFunc(messageType string, handler func(*ZeroMQMessage) ([]byte, error)) {
	s.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

// Start begins serving requests
func (s *ZeroMQService) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Infof("Starting ZeroMQ service")
	s.receiver.Start()
	return nil
}

// Stop halts the service and releases its sockets and context
func (s *ZeroMQService) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.logger.Infof("Stopping ZeroMQ service")
	s.receiver.Stop()
	s.wg.Wait()
	s.receiver.close()
	s.sender.Close()

	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}
	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if !s.running.Load() {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	msgData, err := NewMessage(messageType, data)
	if err != nil {
		return err
	}
	return s.PublishMessage(topic, msgData)
}
