package types

const (
	ActionRideCreate   = "ride_create"
	ActionRideAccept   = "ride_accept"
	ActionRideStart    = "ride_start"
	ActionRideComplete = "ride_complete"
	ActionRideCancel   = "ride_cancel"
	ActionRideGet      = "ride_get"
	ActionRideList     = "ride_list"

	ActionWsConnect    = "ws_connect"
	ActionWsDisconnect = "ws_disconnect"
	ActionWsMessage    = "ws_message"
	ActionWsAuth       = "ws_auth"
	ActionEventSend    = "event_send"
	ActionBroadcast    = "event_broadcast"

	ActionLocationIngest   = "location_ingest"
	ActionInvariantViolate = "invariant_violation"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"
)
