// Command homeworkbot polls the homework status API and reports review
// verdicts to a Telegram chat.
//
//	homeworkbot run               poll until interrupted (default)
//	homeworkbot check             report which credentials are set
//	homeworkbot once [--dry-run]  run a single poll cycle
//	homeworkbot history           print the delivery journal
package main
