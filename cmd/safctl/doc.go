// Command safctl drives a docbridge server from the shell.
//
// Every subcommand is a thin wrapper over a documents or media tool:
//
//	safctl services
//	safctl write-media Pictures/cat.jpg ./cat.jpg
//	safctl read --out a.txt content://docbridge.local/tree/primary/a.txt
//	safctl call --param uri=content://docbridge.local/tree/primary/a.txt documents.getInfo
//
// A tool that reports failure exits with status 2 and prints kind: message.
package main
