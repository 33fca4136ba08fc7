// Package events defines the typed event contract consumed by the turn
// coordinator and forwarded to display collaborators.
//
// Event kinds are grouped by source-facing namespaces:
//
//   - turn_control.* — local user intent (voice mode toggles, barge-in)
//   - agent.*        — remote agent signals decoded from the session transport
//   - playback.*     — local playback scheduler milestones
//   - capture.*      — local capture device milestones
//   - session.*      — display pass-through traffic the coordinator never
//     consumes (transcripts, tool activity, handoffs, context updates,
//     remote errors, connectivity)
//
// Semantics used across the package:
//
//   - Chunk: one decoded audio frame, consumed exactly once.
//   - Done: the remote agent declared its turn finished. Done may arrive
//     while local playback still holds queued audio; draining, not Done,
//     hands the turn back in that case.
//   - Drained: no playback buffers remain queued or rendering.
//
// turn_control events
//
//   - VoiceStarted (turn_control.voice_started): the user enabled voice mode.
//   - VoiceStopped (turn_control.voice_stopped): the user disabled voice mode.
//   - InterruptRequested (turn_control.interrupt_requested): the user barged
//     in on agent playback to reclaim the turn.
//
// agent events
//
//   - AgentSpeaking (agent.speaking): the remote agent started generating
//     audio for its turn.
//   - AgentAudioChunk (agent.audio_chunk): one decoded agent audio frame.
//   - AgentTurnDone (agent.turn_done): the remote agent declared its turn
//     complete; Interrupted marks a server-side barge-in confirmation.
//
// playback events
//
//   - PlaybackDrained (playback.drained): the playback queue emptied, either
//     naturally or because it was cleared.
//
// capture events
//
//   - CaptureFailed (capture.failed): the capture device could not be
//     acquired or died. Fatal to voice mode, not to the session.
package events
