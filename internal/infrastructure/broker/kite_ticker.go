package broker

import (
	"encoding/binary"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Instrument token for the NIFTY BANK index on NSE.
const BankNiftyToken = 260105

// Ticker streams last-traded prices from the Kite websocket in LTP mode
// and feeds them into the adapter's tick cache. Ticks are advisory: if
// the stream drops, GetLastPrice falls back to REST once the cache goes
// stale.
type Ticker struct {
	adapter    *KiteAdapter
	wsURL      string
	token      uint32
	instrument string
	logger     *zap.Logger

	conn *websocket.Conn
	done chan struct{}
}

func NewTicker(adapter *KiteAdapter, wsURL string, token uint32, instrument string, logger *zap.Logger) *Ticker {
	if wsURL == "" {
		wsURL = KiteWSURL
	}
	return &Ticker{
		adapter:    adapter,
		wsURL:      wsURL,
		token:      token,
		instrument: instrument,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Connect dials the ticker, subscribes the instrument token in LTP
// mode, and starts the read loop.
func (t *Ticker) Connect() error {
	u := fmt.Sprintf("%s?api_key=%s&access_token=%s", t.wsURL, t.adapter.apiKey, t.adapter.accessToken)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return err
	}
	t.conn = conn

	sub := map[string]interface{}{"a": "subscribe", "v": []uint32{t.token}}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return err
	}
	mode := map[string]interface{}{"a": "mode", "v": []interface{}{"ltp", []uint32{t.token}}}
	if err := conn.WriteJSON(mode); err != nil {
		conn.Close()
		return err
	}

	go t.readLoop()
	return nil
}

func (t *Ticker) Close() {
	if t.conn != nil {
		t.conn.Close()
	}
}

func (t *Ticker) readLoop() {
	defer func() {
		t.conn.Close()
		close(t.done)
	}()

	for {
		msgType, message, err := t.conn.ReadMessage()
		if err != nil {
			t.logger.Warn("ticker read error, stream closed", zap.Error(err))
			return
		}
		if msgType != websocket.BinaryMessage || len(message) < 2 {
			// Text frames carry postbacks and heartbeats, not ticks.
			continue
		}
		t.parseBinary(message)
	}
}

// parseBinary unpacks Kite's binary tick frame: a big-endian int16
// packet count, then length-prefixed packets. An LTP-mode packet is 8
// bytes: instrument token + last price. Index prices are in 1/100ths.
func (t *Ticker) parseBinary(message []byte) {
	count := int(binary.BigEndian.Uint16(message[0:2]))
	offset := 2

	for i := 0; i < count; i++ {
		if offset+2 > len(message) {
			return
		}
		packetLen := int(binary.BigEndian.Uint16(message[offset : offset+2]))
		offset += 2
		if offset+packetLen > len(message) {
			return
		}

		packet := message[offset : offset+packetLen]
		offset += packetLen

		// Too short to carry token + price; the rest of the frame may
		// still hold valid packets.
		if packetLen < 8 {
			continue
		}

		token := binary.BigEndian.Uint32(packet[0:4])
		if token != t.token {
			continue
		}
		price := float64(binary.BigEndian.Uint32(packet[4:8])) / 100.0
		t.adapter.recordTick(t.instrument, price)
	}
}
