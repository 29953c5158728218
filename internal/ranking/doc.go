// Package ranking orders harvested records by weighted engagement.
//
// Ranking is a pure function of the records and the weights. Equal scores keep
// discovery order.
package ranking
