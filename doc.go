/*
Package transactron provides a transaction manager and scheduler
synthesizer for describing synchronous digital circuits as a collection
of methods (latency-insensitive actions with ready/valid handshakes) and
transactions (single-cycle atomic state changes that invoke one or more
methods).

A Context analyzes the call graph built by a circuit's method and
transaction bodies, computes which transactions may fire simultaneously
without structural hazards, and lowers the result to a gating netlist
mounted on the package's own synchronous circuit runtime: grant signals,
argument multiplexers, result fan-outs and priority-ordered arbitration.

The manager never chooses which of several conflicting, runnable
transactions wins in a given cycle — it only guarantees that at most one
of them does, and that the choice respects designer-supplied priority
hints. Everything else (logic synthesis, timing analysis, place and
route) is out of scope; this package only ever emits combinational and
edge-triggered gating logic.
*/
package transactron
