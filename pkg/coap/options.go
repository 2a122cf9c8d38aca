package coap

import (
	"sort"

	"github.com/plgd-dev/go-coap/v3/message"
)

// OSCORE is CoAP option 9 (RFC 8613 Section 13.7). go-coap's option
// registry does not define it.
const OSCORE = message.OptionID(9)

// Option classes from RFC 8613 Section 4.1: Class E options are
// encrypted into the inner message, Class U options stay on the outer
// message for proxies to read. Observe is special-cased to appear in
// both so intermediaries can track it while the endpoints still get an
// integrity-protected copy.
var outerOnly = map[message.OptionID]bool{
	message.URIHost:     true,
	message.URIPort:     true,
	message.ProxyURI:    true,
	message.ProxyScheme: true,
	message.MaxAge:      true,
	OSCORE:              true,
}

// splitOptions partitions a message's options into the inner
// (encrypted) and outer (visible) sets. Unknown options are treated
// as Class E.
func splitOptions(opts message.Options) (inner, outer message.Options) {
	for _, opt := range opts {
		switch {
		case opt.ID == message.Observe:
			inner = append(inner, opt)
			outer = append(outer, opt)
		case outerOnly[opt.ID]:
			outer = append(outer, opt)
		default:
			inner = append(inner, opt)
		}
	}
	return inner, outer
}

// sortOptions orders options by ID as required for CoAP delta
// encoding. The sort is stable so repeated options keep their order.
func sortOptions(opts message.Options) message.Options {
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].ID < opts[j].ID
	})
	return opts
}
