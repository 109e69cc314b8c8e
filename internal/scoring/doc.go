// Package scoring holds the rules of Truco scorekeeping: which round format
// comes next, how recorded outcomes add up to team totals, what a falta envido
// is worth, and how the dealer and the pica-pica pairings rotate around the
// table. Everything here is a pure function of match history; persistence
// lives in internal/database and orchestration in internal/truco.
package scoring
