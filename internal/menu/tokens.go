package menu

// Callback action tokens. Navigation and list tokens carry no payload;
// join_free / leave_chat carry a chat id and join_paid a catalogue index.
const (
	CbVerifyJoin    = "verify_join"
	CbGetMyID       = "get_my_id"
	CbStartMember   = "start_member"
	CbMainMenuOwner = "main_menu_owner"
	CbAdminPanel    = "admin_panel"
	CbOwnerPanel    = "owner_panel"

	CbManageFree  = "manage_free_channels"
	CbManagePaid  = "manage_paid_channels"
	CbManageUsers = "manage_users"

	CbListAdmins    = "list_admins"
	CbListUsers     = "list_users"
	CbListBlocked   = "list_blocked_users"
	CbBotStats      = "bot_stats"
	CbJoinList      = "join_list"
	CbListFreeAdmin = "list_free_channels_admin"
	CbListPaidAdmin = "list_paid_channels_admin"

	CbShowFree  = "show_free_channels"
	CbShowPaid  = "show_paid_channels"
	CbJoinFree  = "join_free"
	CbJoinPaid  = "join_paid"
	CbLeaveChat = "leave_chat"
	CbNoop      = "noop"

	CbAskBroadcast   = "ask_broadcast_msg"
	CbAskPost        = "ask_post_msg"
	CbAskAddAdmin    = "ask_add_admin"
	CbAskRemoveAdmin = "ask_remove_admin"
	CbAskBlockUser   = "ask_block_user"
	CbAskUnblockUser = "ask_unblock_user"
	CbAskAddFree     = "ask_add_free_channel_name"
	CbAskRemoveFree  = "ask_remove_free_channel"
	CbAskAddPaid     = "ask_add_paid_channel_name"
	CbAskRemovePaid  = "ask_remove_paid_channel"
)
