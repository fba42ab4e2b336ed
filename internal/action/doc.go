// Package action provides typed dispatch for portal refresh commands.
//
// Inbound triggers (MQTT refresh messages, admin API calls) carry an action
// name as free text. Rather than switching on strings at every call site,
// handlers are registered once against a validated Kind and every trigger
// funnels through Dispatcher.Dispatch, which resolves the handler or fails
// with a typed error. Unknown or misspelled actions are caught at one place
// instead of silently doing nothing.
package action
