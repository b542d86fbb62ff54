// Package samsung2878 implements the client side of the Samsung port-2878
// air-conditioner protocol.
//
// The protocol is a line-delimited exchange of XML fragments over a
// persistent TLS socket, one device per connection. The client sends
// <Request> lines and the unit answers with <Response> lines, but it may
// also emit unsolicited <Update> lines carrying state attributes at any
// time, interleaved with command responses on the same stream.
//
// # Architecture
//
// The package is layered, leaf first:
//
//   - Attribute codec (attrs.go): converts between the wire's flat
//     <Attr ID="..." Value="..."/> pairs and RawAttributes mappings.
//   - State transform (state.go): DeriveState, a total pure function from
//     RawAttributes to a typed DeviceState snapshot.
//   - Connection (conn.go): TLS socket, greeting consumption, and the
//     AuthToken handshake.
//   - Client (client.go): the command surface. It serialises one request
//     at a time over the connection and demultiplexes solicited responses
//     from push updates, buffering pushed attributes for the next
//     GetStatus.
//
// # Usage
//
//	dialer, err := samsung2878.NewTLSDialer(certFile)
//	if err != nil {
//	    return err
//	}
//	client := samsung2878.NewClient(samsung2878.ClientConfig{
//	    Host:   "192.168.1.50",
//	    Port:   samsung2878.DefaultPort,
//	    Token:  token,
//	    DUID:   samsung2878.DUIDFromMAC("F8:04:2E:AB:CD:EF"),
//	    Dialer: dialer,
//	})
//	if err := client.Connect(ctx); err != nil { ... }
//	if err := client.Authenticate(ctx); err != nil { ... }
//	state, err := client.GetStatus(ctx)
//
// # Error Model
//
// Hard failures are ErrConnection (socket, TLS, timeout, peer close) and
// ErrAuth (rejected token); both invalidate the connection and require a
// full Disconnect before any further use. Decoding failures are never
// errors: malformed XML yields an empty attribute mapping and unparsable
// numeric attributes fall back to documented defaults, because the device
// firmware is known to emit placeholder and malformed values.
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. The protocol has no
// request-correlation identifier, so the client holds at most one request
// in flight per connection and relies on response-type tagging plus
// arrival order.
package samsung2878
