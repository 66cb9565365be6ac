package ledger

// handlerABI is the interface of the ContractsHandler game contract.
const handlerABI = `[
  {"type":"function","name":"isPlayer","stateMutability":"view",
   "inputs":[{"name":"_address","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"playersLen","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getPlayerNumber","stateMutability":"view",
   "inputs":[{"name":"_index","type":"uint256"}],
   "outputs":[{"name":"","type":"string"},{"name":"","type":"address"}]},
  {"type":"function","name":"getGamesPlayer","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"string[]"}]},
  {"type":"function","name":"getGameData","stateMutability":"view",
   "inputs":[{"name":"_gameName","type":"string"}],
   "outputs":[{"name":"","type":"string"},{"name":"","type":"address"},{"name":"","type":"string"},{"name":"","type":"address"},{"name":"","type":"bool"}]},
  {"type":"function","name":"getGameStake","stateMutability":"view",
   "inputs":[{"name":"_gameName","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getGameTimeData","stateMutability":"view",
   "inputs":[{"name":"_gameName","type":"string"}],
   "outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}]},
  {"type":"function","name":"createPlayer","stateMutability":"nonpayable",
   "inputs":[{"name":"_name","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"createGame","stateMutability":"payable",
   "inputs":[{"name":"_gameName","type":"string"},{"name":"_c1","type":"uint8"},{"name":"_salt","type":"uint256"},{"name":"_j2","type":"address"}],
   "outputs":[]},
  {"type":"function","name":"play","stateMutability":"payable",
   "inputs":[{"name":"_c2","type":"uint8"},{"name":"_gameName","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"solve","stateMutability":"nonpayable",
   "inputs":[{"name":"_gameName","type":"string"},{"name":"_c1","type":"uint8"},{"name":"_salt","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"j1Timeout","stateMutability":"nonpayable",
   "inputs":[{"name":"_gameName","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"j2Timeout","stateMutability":"nonpayable",
   "inputs":[{"name":"_gameName","type":"string"}],
   "outputs":[]},
  {"type":"event","name":"NewPlayer","anonymous":false,
   "inputs":[{"name":"owner","type":"address","indexed":true},{"name":"name","type":"string","indexed":false}]},
  {"type":"event","name":"NewGame","anonymous":false,
   "inputs":[{"name":"player1","type":"address","indexed":true},{"name":"player2","type":"address","indexed":true},{"name":"gameName","type":"string","indexed":false}]},
  {"type":"event","name":"SecondPlayerMoved","anonymous":false,
   "inputs":[{"name":"player1","type":"address","indexed":true},{"name":"player2","type":"address","indexed":true},{"name":"gameName","type":"string","indexed":false}]},
  {"type":"event","name":"FirstPlayerRevealed","anonymous":false,
   "inputs":[{"name":"player1","type":"address","indexed":true},{"name":"player2","type":"address","indexed":true},{"name":"gameName","type":"string","indexed":false},{"name":"winner","type":"address","indexed":false}]},
  {"type":"event","name":"J1Timeout","anonymous":false,
   "inputs":[{"name":"player1","type":"address","indexed":true},{"name":"player2","type":"address","indexed":true},{"name":"gameName","type":"string","indexed":false}]},
  {"type":"event","name":"J2Timeout","anonymous":false,
   "inputs":[{"name":"player1","type":"address","indexed":true},{"name":"player2","type":"address","indexed":true},{"name":"gameName","type":"string","indexed":false}]}
]`

const (
	methodIsPlayer        = "isPlayer"
	methodPlayersLen      = "playersLen"
	methodGetPlayerNumber = "getPlayerNumber"
	methodGetGamesPlayer  = "getGamesPlayer"
	methodGetGameData     = "getGameData"
	methodGetGameStake    = "getGameStake"
	methodGetGameTimeData = "getGameTimeData"
	methodCreatePlayer    = "createPlayer"
	methodCreateGame      = "createGame"
	methodPlay            = "play"
	methodSolve           = "solve"
	methodJ1Timeout       = "j1Timeout"
	methodJ2Timeout       = "j2Timeout"
)
